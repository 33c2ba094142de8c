package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"tabi/internal/models/db_models"
	"tabi/internal/models/request_models"
	"tabi/internal/repositories"
	"tabi/pkg/utils"
)

func TestChunkText(t *testing.T) {
	lengths := func(chunks []string) []int {
		out := make([]int, len(chunks))
		for i, c := range chunks {
			out[i] = len([]rune(c))
		}
		return out
	}
	cases := []struct {
		name    string
		content string
		want    []int
	}{
		{"empty", "", nil},
		{"blank", "   \n\t ", nil},
		{"short", "Kyoto", []int{5}},
		{"exact window", strings.Repeat("a", 512), []int{512, 128}},
		{"thousand", strings.Repeat("b", 1000), []int{512, 512, 232}},
		{"multibyte", strings.Repeat("京", 600), []int{512, 216}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := lengths(ChunkText(tc.content, ChunkSize, ChunkOverlap))
			if len(got) != len(tc.want) {
				t.Fatalf("got %v want %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("got %v want %v", got, tc.want)
				}
			}
		})
	}
}

func TestChunkText_Overlap(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 700; i++ {
		b.WriteRune(rune('a' + i%26))
	}
	chunks := ChunkText(b.String(), ChunkSize, ChunkOverlap)
	if len(chunks) != 2 {
		t.Fatalf("chunks: %d", len(chunks))
	}
	if chunks[0][384:] != chunks[1][:128] {
		t.Fatal("consecutive chunks should share the overlap")
	}
}

func TestDetectKind(t *testing.T) {
	cases := []struct {
		name    string
		file    string
		data    []byte
		pdf     bool
		wantErr error
	}{
		{"pdf magic", "guide.bin", []byte("%PDF-1.7\n..."), true, nil},
		{"text", "kyoto.txt", []byte("Kyoto has many temples."), false, nil},
		{"markdown", "osaka.md", []byte("# Osaka\n\nStreet food."), false, nil},
		{"fake pdf", "guide.pdf", []byte("hello"), false, utils.ErrUnsupportedDocument},
		{"binary", "image.png", []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0}, false, utils.ErrUnsupportedDocument},
		{"empty", "empty.txt", nil, false, utils.ErrInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pdf, err := detectKind(tc.file, tc.data)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("err = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil || pdf != tc.pdf {
				t.Fatalf("pdf=%v err=%v", pdf, err)
			}
		})
	}
}

func TestDocumentService_UploadIngests(t *testing.T) {
	repo := newFakeDocuments()
	embedder := &fakeEmbedder{}
	svc := NewDocumentService(repo, embedder, &inlineJobs{})

	body := strings.Repeat("Nara deer bow politely. ", 50)
	resp, err := svc.Upload(context.Background(), uuid.NewString(),
		request_models.UploadDocumentForm{Name: " Nara guide ", Tags: []string{"Nara, Kansai", "nara"}},
		"nara.txt", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if resp.Name != "Nara guide" || len(resp.Tags) != 2 || resp.Tags[0] != "nara" || resp.Tags[1] != "kansai" {
		t.Fatalf("response: %+v", resp)
	}

	got, err := svc.Get(context.Background(), resp.ID)
	if err != nil {
		t.Fatal(err)
	}
	want := len(ChunkText(body, ChunkSize, ChunkOverlap))
	if got.Status != "ready" || got.ChunkCount != want {
		t.Fatalf("document: %+v, want %d chunks", got, want)
	}
	for i, c := range repo.chunks[resp.ID] {
		if c.Position != i || c.Embedding.Slice()[0] != float32(len([]rune(c.Content))) {
			t.Fatalf("chunk %d: %+v", i, c)
		}
	}
}

func TestDocumentService_EmbedBatches(t *testing.T) {
	embedder := &fakeEmbedder{}
	svc := NewDocumentService(newFakeDocuments(), embedder, &inlineJobs{})
	body := strings.Repeat("x", 384*40+128)
	if _, err := svc.IngestSync(context.Background(), "big", "big.txt", nil, strings.NewReader(body)); err != nil {
		t.Fatal(err)
	}
	if embedder.calls != 2 {
		t.Fatalf("expected two embedding batches, got %d calls", embedder.calls)
	}
}

func TestDocumentService_Validation(t *testing.T) {
	svc := NewDocumentService(newFakeDocuments(), &fakeEmbedder{}, &inlineJobs{})
	ctx := context.Background()

	_, err := svc.Upload(ctx, "", request_models.UploadDocumentForm{Name: "  "}, "a.txt", strings.NewReader("text"))
	if !errors.Is(err, utils.ErrInvalidInput) {
		t.Fatalf("blank name: %v", err)
	}
	_, err = svc.Upload(ctx, "", request_models.UploadDocumentForm{Name: strings.Repeat("n", 65)}, "a.txt", strings.NewReader("text"))
	if !errors.Is(err, utils.ErrInvalidInput) {
		t.Fatalf("long name: %v", err)
	}
	big := bytes.Repeat([]byte("a"), MaxDocumentBytes+1)
	_, err = svc.Upload(ctx, "", request_models.UploadDocumentForm{Name: "big"}, "a.txt", bytes.NewReader(big))
	if !errors.Is(err, utils.ErrDocumentTooLarge) {
		t.Fatalf("too large: %v", err)
	}
	if _, err := svc.Get(ctx, "nope"); !errors.Is(err, utils.ErrDocumentNotFound) {
		t.Fatalf("bad id: %v", err)
	}
	if _, err := svc.Get(ctx, uuid.NewString()); !errors.Is(err, utils.ErrDocumentNotFound) {
		t.Fatalf("missing id: %v", err)
	}
}

func TestDocumentService_EmbedFailureMarksFailed(t *testing.T) {
	repo := newFakeDocuments()
	jobs := &inlineJobs{}
	svc := NewDocumentService(repo, &fakeEmbedder{err: errors.New("embedding model offline")}, jobs)

	resp, err := svc.Upload(context.Background(), "", request_models.UploadDocumentForm{Name: "Sapporo"}, "s.txt", strings.NewReader("Snow festival in February."))
	if err != nil {
		t.Fatal(err)
	}
	if jobs.errs[0] == nil {
		t.Fatal("ingest job should fail")
	}
	doc, _ := repo.FindByID(context.Background(), resp.ID)
	if doc.Status != db_models.DocumentFailed || !strings.Contains(doc.Error, "embedding model offline") {
		t.Fatalf("document: %+v", doc)
	}
}

type panickingEmbedder struct{}

func (panickingEmbedder) Embed(context.Context, []string) ([][]float32, error) {
	panic("tokenizer state corrupted")
}

func TestDocumentService_PanicMarksFailed(t *testing.T) {
	repo := newFakeDocuments()
	svc := NewDocumentService(repo, panickingEmbedder{}, &inlineJobs{})

	resp, err := svc.Upload(context.Background(), "", request_models.UploadDocumentForm{Name: "Sendai"}, "s.txt", strings.NewReader("Tanabata in August."))
	if err != nil {
		t.Fatal(err)
	}
	doc, _ := repo.FindByID(context.Background(), resp.ID)
	if doc.Status != db_models.DocumentFailed || !strings.Contains(doc.Error, "tokenizer state corrupted") {
		t.Fatalf("document: %+v", doc)
	}
}

func TestDocumentService_CityInformation(t *testing.T) {
	repo := newFakeDocuments()
	svc := NewDocumentService(repo, &fakeEmbedder{}, &inlineJobs{})
	ctx := context.Background()

	got, err := svc.CityInformation(ctx, "Kanazawa")
	if err != nil || got != "No information found." {
		t.Fatalf("empty store: %q %v", got, err)
	}

	repo.nearest = []repositories.ChunkDistance{
		{Chunk: db_models.Chunk{Content: "Kenrokuen is a garden."}, Distance: 0.1},
		{Chunk: db_models.Chunk{Content: "Omicho market sells crab."}, Distance: 0.2},
	}
	got, err = svc.CityInformation(ctx, "Kanazawa")
	if err != nil {
		t.Fatal(err)
	}
	if want := "- Kenrokuen is a garden.\n\n- Omicho market sells crab."; got != want {
		t.Fatalf("got %q want %q", got, want)
	}

	if _, err := svc.CityInformation(ctx, " "); !errors.Is(err, utils.ErrInvalidInput) {
		t.Fatalf("blank query: %v", err)
	}
}
