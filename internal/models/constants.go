package models

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

const (
	RoleGuest      = "guest"
	RoleHotelOwner = "hotel_owner"
	RoleAdmin      = "admin"
)

const (
	// CapacityHorizonDays горизонт пересчета доступности при смене вместимости
	CapacityHorizonDays = 365

	// DefaultMaxStayNights максимальная длительность проживания
	DefaultMaxStayNights = 30

	// DefaultMaxAdvanceDays насколько далеко вперед можно бронировать
	DefaultMaxAdvanceDays = 365

	// DefaultOccupancyReportDays размер окна отчета по загрузке
	DefaultOccupancyReportDays = 30

	// AvailabilityCacheTTL время жизни кэша доступности
	AvailabilityCacheTTL = 5 * 60 // 5 минут в секундах

	// WorkerQueueBatchSize размер пачки задач синхронизации за проход
	WorkerQueueBatchSize = 20
)
