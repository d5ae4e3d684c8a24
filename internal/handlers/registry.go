package handlers

// AppHandlers holds every HTTP handler of the application.
type AppHandlers struct {
	PlaceHandler  *PlaceHandler
	UserHandler   *UserHandler
	FileHandler   *FileHandler
	HealthHandler *HealthHandler
}
