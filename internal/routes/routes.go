package routes

const (
	// Health
	Health = "/health"

	// Reservations
	ReservationsBase = "/api/v1/reservations"
	ReservationByID  = "/api/v1/reservations/{id}"

	// Room search + inventory
	RoomsAvailable = "/api/v1/rooms/available"
	RoomsFree      = "/api/v1/rooms/free"
	RoomUnits      = "/api/v1/rooms/units"

	// Rate sheet
	RatesSheet = "/api/v1/rates/sheet"
)
