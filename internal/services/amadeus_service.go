package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"tabi/internal/models/response_models"
	"tabi/pkg/utils"
)

const serviceAmadeus = "amadeus"

type AmadeusHotel struct {
	HotelID  string
	Name     string
	IATACode string
}

type AmadeusServiceInterface interface {
	ListHotels(ctx context.Context, cityCode string, max int) ([]AmadeusHotel, error)
	HotelOffers(ctx context.Context, hotelIDs []string, q HotelQuery) ([]response_models.HotelOffer, error)
	FlightOffers(ctx context.Context, q FlightQuery) ([]response_models.FlightOffer, error)
}

type AmadeusService struct {
	rest *restClient
}

// NewAmadeusService authenticates with the client credentials grant. Tokens are
// cached and refreshed by x/oauth2; both token and API calls go through base.
func NewAmadeusService(base *http.Client, baseURL, clientID, clientSecret string) AmadeusServiceInterface {
	baseURL = strings.TrimRight(baseURL, "/")
	cc := clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     baseURL + "/v1/security/oauth2/token",
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	hc := cc.Client(ctx)
	hc.Timeout = base.Timeout

	return &AmadeusService{rest: &restClient{
		service:  serviceAmadeus,
		base:     baseURL,
		hc:       hc,
		parseErr: amadeusErrorMessage,
	}}
}

// amadeusErrorMessage reads {"errors": [{"detail": ..., "title": ...}]}.
func amadeusErrorMessage(body []byte) string {
	var e struct {
		Errors []struct {
			Title  string `json:"title"`
			Detail string `json:"detail"`
		} `json:"errors"`
		ErrorDescription string `json:"error_description"`
	}
	if json.Unmarshal(body, &e) != nil {
		return ""
	}
	var parts []string
	for _, item := range e.Errors {
		if item.Detail != "" {
			parts = append(parts, item.Detail)
		} else if item.Title != "" {
			parts = append(parts, item.Title)
		}
	}
	if len(parts) == 0 {
		return e.ErrorDescription
	}
	return strings.Join(parts, "; ")
}

func (a *AmadeusService) ListHotels(ctx context.Context, cityCode string, max int) ([]AmadeusHotel, error) {
	var out struct {
		Data []struct {
			HotelID  string `json:"hotelId"`
			Name     string `json:"name"`
			IATACode string `json:"iataCode"`
		} `json:"data"`
	}
	q := url.Values{"cityCode": {strings.ToUpper(cityCode)}}
	if err := a.rest.do(ctx, http.MethodGet, "hotels.byCity", "/v1/reference-data/locations/hotels/by-city", q, nil, nil, &out); err != nil {
		return nil, err
	}
	hotels := make([]AmadeusHotel, 0, len(out.Data))
	for _, h := range out.Data {
		if max > 0 && len(hotels) == max {
			break
		}
		hotels = append(hotels, AmadeusHotel{HotelID: h.HotelID, Name: h.Name, IATACode: h.IATACode})
	}
	return hotels, nil
}

type amadeusHotelOffers struct {
	Data []struct {
		Hotel struct {
			HotelID  string `json:"hotelId"`
			Name     string `json:"name"`
			CityCode string `json:"cityCode"`
			Rating   string `json:"rating"`
			Address  struct {
				Lines []string `json:"lines"`
			} `json:"address"`
		} `json:"hotel"`
		Offers []struct {
			ID    string `json:"id"`
			Price struct {
				Total    string `json:"total"`
				Currency string `json:"currency"`
			} `json:"price"`
			Room struct {
				TypeEstimated struct {
					Category string `json:"category"`
					BedType  string `json:"bedType"`
				} `json:"typeEstimated"`
				Description struct {
					Text string `json:"text"`
				} `json:"description"`
			} `json:"room"`
		} `json:"offers"`
	} `json:"data"`
}

func (a *AmadeusService) HotelOffers(ctx context.Context, hotelIDs []string, hq HotelQuery) ([]response_models.HotelOffer, error) {
	if len(hotelIDs) == 0 {
		return nil, nil
	}
	nights, err := utils.NightsBetween(hq.CheckIn, hq.CheckOut)
	if err != nil {
		return nil, err
	}
	q := url.Values{
		"hotelIds":     {strings.Join(hotelIDs, ",")},
		"checkInDate":  {hq.CheckIn},
		"checkOutDate": {hq.CheckOut},
		"adults":       {strconv.Itoa(hq.Adults)},
		"currency":     {hq.Currency},
		"bestRateOnly": {"true"},
	}
	var out amadeusHotelOffers
	if err := a.rest.do(ctx, http.MethodGet, "hotels.offers", "/v3/shopping/hotel-offers", q, nil, nil, &out); err != nil {
		return nil, err
	}

	var offers []response_models.HotelOffer
	for _, d := range out.Data {
		for _, o := range d.Offers {
			total, err := strconv.ParseFloat(o.Price.Total, 64)
			if err != nil {
				continue
			}
			if hq.MaxPrice > 0 && total > hq.MaxPrice {
				continue
			}
			perNight := total
			if nights > 0 {
				perNight = total / float64(nights)
			}
			offer := response_models.HotelOffer{
				HotelID:       d.Hotel.HotelID,
				Name:          d.Hotel.Name,
				CityCode:      hq.CityCode,
				PricePerNight: round2(perNight),
				Total:         total,
				Currency:      o.Price.Currency,
				Nights:        nights,
				Guests:        hq.Adults,
				RoomType:      orNA(o.Room.TypeEstimated.Category),
				BedType:       orNA(o.Room.TypeEstimated.BedType),
				Rating:        d.Hotel.Rating,
			}
			if len(d.Hotel.Address.Lines) > 0 {
				offer.Address = d.Hotel.Address.Lines[0]
			}
			for _, a := range strings.Split(o.Room.Description.Text, ",") {
				if a = strings.TrimSpace(a); a != "" {
					offer.Amenities = append(offer.Amenities, a)
				}
			}
			offers = append(offers, offer)
		}
	}
	return offers, nil
}

type amadeusSegment struct {
	Departure struct {
		IATACode string `json:"iataCode"`
		Terminal string `json:"terminal"`
		At       string `json:"at"`
	} `json:"departure"`
	Arrival struct {
		IATACode string `json:"iataCode"`
		Terminal string `json:"terminal"`
		At       string `json:"at"`
	} `json:"arrival"`
	CarrierCode string `json:"carrierCode"`
	Number      string `json:"number"`
	Aircraft    struct {
		Code string `json:"code"`
	} `json:"aircraft"`
	Duration string `json:"duration"`
}

type amadeusFlightOffers struct {
	Data []struct {
		ID                     string   `json:"id"`
		NumberOfBookableSeats  int      `json:"numberOfBookableSeats"`
		ValidatingAirlineCodes []string `json:"validatingAirlineCodes"`
		Itineraries            []struct {
			Duration string           `json:"duration"`
			Segments []amadeusSegment `json:"segments"`
		} `json:"itineraries"`
		Price struct {
			Total    string `json:"total"`
			Currency string `json:"currency"`
		} `json:"price"`
	} `json:"data"`
}

func (a *AmadeusService) FlightOffers(ctx context.Context, fq FlightQuery) ([]response_models.FlightOffer, error) {
	q := url.Values{
		"originLocationCode":      {strings.ToUpper(fq.Origin)},
		"destinationLocationCode": {strings.ToUpper(fq.Destination)},
		"departureDate":           {fq.DepartureDate},
		"adults":                  {strconv.Itoa(fq.Adults)},
		"travelClass":             {fq.TravelClass},
		"currencyCode":            {fq.Currency},
		"max":                     {strconv.Itoa(fq.Max)},
	}
	if fq.ReturnDate != "" {
		q.Set("returnDate", fq.ReturnDate)
	}
	if fq.NonStop {
		q.Set("nonStop", "true")
	}
	if fq.MaxPrice > 0 {
		q.Set("maxPrice", strconv.Itoa(int(fq.MaxPrice)))
	}

	var out amadeusFlightOffers
	if err := a.rest.do(ctx, http.MethodGet, "flights.offers", "/v2/shopping/flight-offers", q, nil, nil, &out); err != nil {
		return nil, err
	}

	flights := make([]response_models.FlightOffer, 0, len(out.Data))
	for _, d := range out.Data {
		if len(d.Itineraries) == 0 {
			continue
		}
		total, err := strconv.ParseFloat(d.Price.Total, 64)
		if err != nil {
			continue
		}
		f := response_models.FlightOffer{
			ID:             d.ID,
			Type:           "one-way",
			Total:          total,
			PricePerPerson: round2(total / float64(max(fq.Adults, 1))),
			Currency:       d.Price.Currency,
			TravelClass:    fq.TravelClass,
			NonStop:        fq.NonStop,
			SeatsAvailable: d.NumberOfBookableSeats,
		}
		if len(d.ValidatingAirlineCodes) > 0 {
			f.Airline = d.ValidatingAirlineCodes[0]
		}
		parse := func(duration string, segs []amadeusSegment) *response_models.FlightItinerary {
			it := &response_models.FlightItinerary{TotalDuration: duration}
			for _, s := range segs {
				it.Segments = append(it.Segments, response_models.FlightSegment{
					Departure:    response_models.FlightEndpoint{Airport: s.Departure.IATACode, Terminal: orNA(s.Departure.Terminal), Time: s.Departure.At},
					Arrival:      response_models.FlightEndpoint{Airport: s.Arrival.IATACode, Terminal: orNA(s.Arrival.Terminal), Time: s.Arrival.At},
					Carrier:      s.CarrierCode,
					FlightNumber: s.Number,
					Aircraft:     orNA(s.Aircraft.Code),
					Duration:     s.Duration,
					CabinClass:   fq.TravelClass,
				})
			}
			return it
		}
		f.Outbound = parse(d.Itineraries[0].Duration, d.Itineraries[0].Segments)
		f.NumberOfStops = max(len(f.Outbound.Segments)-1, 0)
		if len(d.Itineraries) > 1 {
			f.Type = "round-trip"
			f.Return = parse(d.Itineraries[1].Duration, d.Itineraries[1].Segments)
			f.NumberOfStops += max(len(f.Return.Segments)-1, 0)
		}
		if f.Airline == "" && len(f.Outbound.Segments) > 0 {
			f.Airline = f.Outbound.Segments[0].Carrier
		}
		flights = append(flights, f)
	}
	return flights, nil
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
