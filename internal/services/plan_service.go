package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"

	"tabi/internal/agents"
	"tabi/internal/models/db_models"
	"tabi/internal/models/request_models"
	"tabi/internal/models/response_models"
	"tabi/internal/repositories"
	"tabi/pkg/utils"
)

const (
	maxPromptRunes = 4000
	maxTitleRunes  = 64
	jobPlan        = "plan"
)

// JobSubmitter queues background work. Implemented by jobs.Runner.
type JobSubmitter interface {
	Submit(kind string, fn func(ctx context.Context) error, onAbort func(ctx context.Context, err error)) error
}

// Planner writes a plan for a customer request. Implemented by agents.Crew.
type Planner interface {
	Plan(ctx context.Context, prompt string) (*agents.Result, error)
	Title(ctx context.Context, content string) (string, error)
}

type PlanServiceInterface interface {
	CreatePlan(ctx context.Context, accountID string, request request_models.CreatePlanRequest) (*response_models.PlanAccepted, error)
	// Generate runs the crew for a stored plan and records the outcome on it.
	Generate(ctx context.Context, planID string) error
	ListPlans(ctx context.Context, accountID string, page, pageSize int) (*response_models.Page[response_models.PlanSummary], error)
	GetPlan(ctx context.Context, accountID, planID string) (*response_models.PlanDetail, error)
}

type PlanService struct {
	planRepo    repositories.PlanRepository
	accountRepo repositories.AccountRepository
	planner     Planner
	jobs        JobSubmitter
	mailer      IMailService
	baseURL     string
}

func NewPlanService(
	planRepo repositories.PlanRepository,
	accountRepo repositories.AccountRepository,
	planner Planner,
	jobs JobSubmitter,
	mailer IMailService,
	baseURL string,
) PlanServiceInterface {
	return &PlanService{
		planRepo:    planRepo,
		accountRepo: accountRepo,
		planner:     planner,
		jobs:        jobs,
		mailer:      mailer,
		baseURL:     strings.TrimRight(baseURL, "/"),
	}
}

func (s *PlanService) CreatePlan(ctx context.Context, accountID string, request request_models.CreatePlanRequest) (*response_models.PlanAccepted, error) {
	owner, err := uuid.Parse(accountID)
	if err != nil {
		return nil, utils.ErrUnauthorized
	}
	prompt := strings.TrimSpace(request.Prompt)
	if prompt == "" || utf8.RuneCountInString(prompt) > maxPromptRunes {
		return nil, fmt.Errorf("%w: prompt must be 1 to %d characters", utils.ErrInvalidInput, maxPromptRunes)
	}

	plan := &db_models.Plan{AccountID: owner, Prompt: prompt, Status: db_models.PlanPending}
	if err := s.planRepo.Create(ctx, plan); err != nil {
		return nil, utils.ErrDatabaseError
	}

	id := plan.ID.String()
	generate := func(ctx context.Context) error { return s.Generate(ctx, id) }
	if err := s.jobs.Submit(jobPlan, generate, s.abortPlan(id)); err != nil {
		_ = s.planRepo.MarkStatus(context.WithoutCancel(ctx), id, db_models.PlanFailed, err.Error())
		return nil, err
	}
	log.Info().Str("plan_id", id).Str("account_id", accountID).Msg("plan queued")

	return &response_models.PlanAccepted{ID: id, Status: string(db_models.PlanPending)}, nil
}

func (s *PlanService) Generate(ctx context.Context, planID string) error {
	plan, err := s.planRepo.FindByID(ctx, planID)
	if err != nil {
		return utils.ErrDatabaseError
	}
	if plan == nil {
		return utils.ErrPlanNotFound
	}
	if err := s.planRepo.MarkStatus(ctx, planID, db_models.PlanProcessing, ""); err != nil {
		return utils.ErrDatabaseError
	}

	logger := log.With().Str("plan_id", planID).Logger()
	logger.Info().Msg("plan generation started")

	res, err := s.planner.Plan(ctx, plan.Prompt)
	// Writes below must survive a generation that ran out of time.
	store := context.WithoutCancel(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("plan generation failed")
		if mErr := s.planRepo.MarkStatus(store, planID, db_models.PlanFailed, failureMessage(err)); mErr != nil {
			logger.Error().Err(mErr).Msg("could not mark plan failed")
		}
		return err
	}

	title, err := s.planner.Title(ctx, res.Content)
	if err != nil || title == "" {
		logger.Warn().Err(err).Msg("title generation failed, using the prompt")
		title = truncateRunes(strings.Join(strings.Fields(plan.Prompt), " "), maxTitleRunes)
	}

	transcript, err := json.Marshal(res)
	if err != nil {
		transcript = nil
	}
	now := utils.NowUnixSeconds()
	plan.Title = truncateRunes(title, maxTitleRunes)
	plan.Content = res.Content
	plan.Status = db_models.PlanReady
	plan.Error = ""
	plan.Transcript = datatypes.JSON(transcript)
	plan.CompletedAt = &now
	if err := s.planRepo.Update(store, plan); err != nil {
		logger.Error().Err(err).Msg("could not save plan")
		return utils.ErrDatabaseError
	}
	logger.Info().Str("title", plan.Title).Int("steps", len(res.Steps)).Msg("plan ready")

	s.notify(store, plan)
	return nil
}

// abortPlan fails a plan whose job panicked or never started.
func (s *PlanService) abortPlan(id string) func(ctx context.Context, err error) {
	return func(ctx context.Context, err error) {
		if mErr := s.planRepo.MarkStatus(ctx, id, db_models.PlanFailed, failureMessage(err)); mErr != nil {
			log.Error().Err(mErr).Str("plan_id", id).Msg("could not mark aborted plan failed")
		}
	}
}

// notify mails the owner. Mail failures are logged only, the plan is already saved.
func (s *PlanService) notify(ctx context.Context, plan *db_models.Plan) {
	account, err := s.accountRepo.FindById(ctx, plan.AccountID.String())
	if err != nil || account == nil || account.Email == "" {
		log.Warn().Err(err).Str("plan_id", plan.ID.String()).Msg("no recipient for plan-ready mail")
		return
	}
	url := fmt.Sprintf("%s/plans/%s", s.baseURL, plan.ID)
	if err := s.mailer.SendPlanReady(account.Email, plan.Title, url); err != nil {
		log.Error().Err(err).Str("plan_id", plan.ID.String()).Msg("plan-ready mail failed")
	}
}

func (s *PlanService) ListPlans(ctx context.Context, accountID string, page, pageSize int) (*response_models.Page[response_models.PlanSummary], error) {
	if _, err := uuid.Parse(accountID); err != nil {
		return nil, utils.ErrUnauthorized
	}
	plans, total, err := s.planRepo.ListByAccount(ctx, accountID, page, pageSize)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	items := make([]response_models.PlanSummary, 0, len(plans))
	for i := range plans {
		items = append(items, toPlanSummary(&plans[i]))
	}
	return &response_models.Page[response_models.PlanSummary]{Items: items, Page: page, PageSize: pageSize, Total: total}, nil
}

func (s *PlanService) GetPlan(ctx context.Context, accountID, planID string) (*response_models.PlanDetail, error) {
	if _, err := uuid.Parse(planID); err != nil {
		return nil, utils.ErrPlanNotFound
	}
	plan, err := s.planRepo.FindByID(ctx, planID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	// Someone else's plan looks exactly like a missing one.
	if plan == nil || plan.AccountID.String() != accountID {
		return nil, utils.ErrPlanNotFound
	}

	detail := &response_models.PlanDetail{
		PlanSummary: toPlanSummary(plan),
		Prompt:      plan.Prompt,
		Content:     plan.Content,
		Error:       plan.Error,
	}
	if plan.Content != "" {
		html, err := utils.RenderMarkdown(plan.Content)
		if err != nil {
			log.Warn().Err(err).Str("plan_id", planID).Msg("markdown rendering failed")
		} else {
			detail.ContentHTML = html
		}
	}
	return detail, nil
}

func toPlanSummary(p *db_models.Plan) response_models.PlanSummary {
	return response_models.PlanSummary{
		ID:          p.ID.String(),
		Title:       p.Title,
		Status:      string(p.Status),
		CreatedAt:   p.CreatedAt,
		CompletedAt: p.CompletedAt,
	}
}

func failureMessage(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "plan generation timed out"
	case errors.Is(err, agents.ErrMaxIterations):
		return "the planner could not finish the plan"
	}
	return truncateRunes(err.Error(), 500)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:n]))
}
