package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"stayhub/internal/models"
	"stayhub/internal/service"
)

func (s *HTTPServer) handleAvailabilityRange(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	roomTypeID, action, err := pathID(r.URL.Path, "/api/v1/availability/")
	if err != nil || action != "" {
		writeError(w, http.StatusBadRequest, "room type id is required")
		return
	}

	from, err := parseDate(r.URL.Query().Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid from date; expected YYYY-MM-DD")
		return
	}
	to, err := parseDate(r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid to date; expected YYYY-MM-DD")
		return
	}

	days, err := s.svc.Availability.GetRange(r.Context(), roomTypeID, from, to)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"room_type_id": roomTypeID, "days": days})
}

func (s *HTTPServer) handleAvailabilityCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body struct {
		RoomTypeID int64  `json:"room_type_id"`
		CheckIn    string `json:"check_in"`
		CheckOut   string `json:"check_out"`
		Rooms      int64  `json:"rooms"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	checkIn, checkOut, err := parseStay(body.CheckIn, body.CheckOut)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.svc.Availability.Check(r.Context(), body.RoomTypeID, checkIn, checkOut, body.Rooms)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *HTTPServer) handleCreateReservation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	callerID, err := s.auth.CallerID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	var body struct {
		RoomTypeID int64  `json:"room_type_id"`
		CheckIn    string `json:"check_in"`
		CheckOut   string `json:"check_out"`
		Rooms      int64  `json:"rooms"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	checkIn, checkOut, err := parseStay(body.CheckIn, body.CheckOut)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.svc.Reservations.Reserve(r.Context(), callerID, body.RoomTypeID, checkIn, checkOut, body.Rooms)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *HTTPServer) handleReservationAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	reservationID, action, err := pathID(r.URL.Path, "/api/v1/reservations/")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if action != "cancel" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	callerID, err := s.auth.CallerID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	if err := s.svc.Reservations.CancelReservation(r.Context(), callerID, reservationID); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": models.StatusCancelled})
}

func (s *HTTPServer) handleListBookings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	callerID, err := s.auth.CallerID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	bookings, err := s.svc.Reservations.ListUserBookings(r.Context(), callerID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

func (s *HTTPServer) handleBookingAction(w http.ResponseWriter, r *http.Request) {
	bookingID, action, err := pathID(r.URL.Path, "/api/v1/bookings/")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	callerID, err := s.auth.CallerID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		s.bookingDetail(w, r, callerID, bookingID)
	case action == "cancel" && r.Method == http.MethodPost:
		s.cancelBooking(w, r, callerID, bookingID)
	case action == "confirm" && r.Method == http.MethodPost:
		s.confirmBooking(w, r, callerID, bookingID)
	case action == "flights" && r.Method == http.MethodPost:
		s.addFlight(w, r, callerID, bookingID)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *HTTPServer) bookingDetail(w http.ResponseWriter, r *http.Request, callerID, bookingID int64) {
	booking, reservations, flights, err := s.svc.Reservations.GetBookingDetail(r.Context(), callerID, bookingID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"booking":      booking,
		"reservations": reservations,
		"flights":      flights,
	})
}

func (s *HTTPServer) cancelBooking(w http.ResponseWriter, r *http.Request, callerID, bookingID int64) {
	scope, err := service.ParseCancelScope(r.URL.Query().Get("scope"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.svc.Reservations.CancelBooking(r.Context(), callerID, bookingID, scope); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"booking_id": bookingID, "scope": scope})
}

func (s *HTTPServer) confirmBooking(w http.ResponseWriter, r *http.Request, callerID, bookingID int64) {
	var body struct {
		PaymentOK bool `json:"payment_ok"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := s.svc.Reservations.ConfirmBooking(r.Context(), callerID, bookingID, body.PaymentOK); err != nil {
		s.writeServiceError(w, err)
		return
	}

	status := models.StatusConfirmed
	if !body.PaymentOK {
		status = models.StatusCancelled
	}
	writeJSON(w, http.StatusOK, map[string]any{"booking_id": bookingID, "status": status})
}

func (s *HTTPServer) addFlight(w http.ResponseWriter, r *http.Request, callerID, bookingID int64) {
	var body struct {
		FlightNumber string  `json:"flight_number"`
		DepartDate   string  `json:"depart_date"`
		Price        float64 `json:"price"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(body.FlightNumber) == "" {
		writeError(w, http.StatusBadRequest, "flight_number is required")
		return
	}
	departDate, err := parseDate(body.DepartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid depart_date; expected YYYY-MM-DD")
		return
	}

	seg := &models.FlightSegment{
		BookingID:    bookingID,
		FlightNumber: body.FlightNumber,
		DepartDate:   departDate,
		Price:        body.Price,
	}
	if err := s.svc.Reservations.AddFlight(r.Context(), callerID, seg); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, seg)
}

func (s *HTTPServer) handleRoomTypes(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		roomTypes, err := s.svc.RoomTypes.List(r.Context())
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"room_types": roomTypes})
	case http.MethodPost:
		callerID, err := s.auth.CallerID(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}

		var body struct {
			HotelID       int64   `json:"hotel_id"`
			Name          string  `json:"name"`
			PricePerNight float64 `json:"price_per_night"`
			TotalRooms    int64   `json:"total_rooms"`
		}
		if err := decodeJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if strings.TrimSpace(body.Name) == "" || body.TotalRooms < 0 {
			writeError(w, http.StatusBadRequest, "name and non-negative total_rooms are required")
			return
		}

		rt := &models.RoomType{
			HotelID:       body.HotelID,
			Name:          body.Name,
			PricePerNight: body.PricePerNight,
			TotalRooms:    body.TotalRooms,
		}
		if err := s.svc.RoomTypes.Create(r.Context(), callerID, rt); err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, rt)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleRoomTypeAction(w http.ResponseWriter, r *http.Request) {
	roomTypeID, action, err := pathID(r.URL.Path, "/api/v1/room-types/")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		rt, err := s.svc.RoomTypes.Get(r.Context(), roomTypeID)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rt)
	case action == "" && r.Method == http.MethodDelete:
		callerID, err := s.auth.CallerID(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		if err := s.svc.RoomTypes.Delete(r.Context(), callerID, roomTypeID); err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"deleted": roomTypeID})
	case action == "capacity" && r.Method == http.MethodPut:
		callerID, err := s.auth.CallerID(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}

		var body struct {
			TotalRooms int64 `json:"total_rooms"`
		}
		if err := decodeJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		if err := s.svc.RoomTypes.SetCapacity(r.Context(), callerID, roomTypeID, body.TotalRooms); err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"room_type_id": roomTypeID, "total_rooms": body.TotalRooms})
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *HTTPServer) handleOccupancyReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	report, err := s.svc.Reports.BuildOccupancy(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	if strings.EqualFold(r.URL.Query().Get("format"), "xlsx") {
		if s.svc.Exporter == nil {
			writeError(w, http.StatusNotImplemented, "excel export is not configured")
			return
		}
		path, err := s.svc.Exporter.WriteOccupancy(report)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"file_path": path})
		return
	}

	writeJSON(w, http.StatusOK, report)
}

func (s *HTTPServer) handleNotifications(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	callerID, err := s.auth.CallerID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	notifications, err := s.svc.Notifications.List(r.Context(), callerID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": notifications})
}

func (s *HTTPServer) handleNotificationAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	notificationID, action, err := pathID(r.URL.Path, "/api/v1/notifications/")
	if err != nil || action != "read" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	callerID, err := s.auth.CallerID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	if err := s.svc.Notifications.MarkRead(r.Context(), notificationID, callerID); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"read": notificationID})
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func parseStay(checkIn, checkOut string) (time.Time, time.Time, error) {
	in, err := parseDate(checkIn)
	if err != nil {
		return time.Time{}, time.Time{}, errInvalidDate("check_in")
	}
	out, err := parseDate(checkOut)
	if err != nil {
		return time.Time{}, time.Time{}, errInvalidDate("check_out")
	}
	return in, out, nil
}

type errInvalidDate string

func (e errInvalidDate) Error() string {
	return "invalid " + string(e) + " date; expected YYYY-MM-DD"
}
