package services

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"tabi/internal/models/response_models"
)

const routesFieldMask = "routes.distanceMeters,routes.duration,routes.polyline.encodedPolyline"

type RoutesServiceInterface interface {
	ComputeRoute(ctx context.Context, origin, destination response_models.LatLng) (*response_models.Route, error)
}

type RoutesService struct {
	rest *restClient
}

// NewRoutesService talks to the Routes API; hc must add the API key header.
func NewRoutesService(hc *http.Client, baseURL string) RoutesServiceInterface {
	if baseURL == "" {
		baseURL = "https://routes.googleapis.com"
	}
	return &RoutesService{rest: &restClient{
		service:  serviceGoogle,
		base:     strings.TrimRight(baseURL, "/"),
		hc:       hc,
		parseErr: googleErrorMessage,
	}}
}

type routeWaypoint struct {
	Location struct {
		LatLng struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"latLng"`
	} `json:"location"`
}

func waypoint(p response_models.LatLng) routeWaypoint {
	var w routeWaypoint
	w.Location.LatLng.Latitude = p.Lat
	w.Location.LatLng.Longitude = p.Lng
	return w
}

type computeRoutesRequest struct {
	Origin            routeWaypoint `json:"origin"`
	Destination       routeWaypoint `json:"destination"`
	TravelMode        string        `json:"travelMode"`
	RoutingPreference string        `json:"routingPreference"`
}

type computeRoutesResponse struct {
	Routes []struct {
		DistanceMeters int64  `json:"distanceMeters"`
		Duration       string `json:"duration"`
		Polyline       struct {
			EncodedPolyline string `json:"encodedPolyline"`
		} `json:"polyline"`
	} `json:"routes"`
}

func (s *RoutesService) ComputeRoute(ctx context.Context, origin, destination response_models.LatLng) (*response_models.Route, error) {
	body := computeRoutesRequest{
		Origin:            waypoint(origin),
		Destination:       waypoint(destination),
		TravelMode:        "DRIVE",
		RoutingPreference: "TRAFFIC_AWARE",
	}
	header := http.Header{"X-Goog-FieldMask": []string{routesFieldMask}}

	var out computeRoutesResponse
	if err := s.rest.do(ctx, http.MethodPost, "routes.computeRoutes", "/directions/v2:computeRoutes", nil, header, body, &out); err != nil {
		return nil, err
	}
	if len(out.Routes) == 0 {
		return nil, notFound(serviceGoogle, "routes.computeRoutes", "No route found between the specified points")
	}

	r := out.Routes[0]
	secs, err := parseDurationSeconds(r.Duration)
	if err != nil {
		return nil, &APIError{Service: serviceGoogle, Endpoint: "routes.computeRoutes", Status: http.StatusOK, Message: "unexpected duration " + r.Duration}
	}
	return &response_models.Route{
		DistanceMeters:  r.DistanceMeters,
		DurationMinutes: secs / 60,
		Polyline:        r.Polyline.EncodedPolyline,
	}, nil
}

// parseDurationSeconds reads protobuf durations such as "12345s".
func parseDurationSeconds(s string) (int, error) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "s")
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}
	return strconv.Atoi(s)
}
