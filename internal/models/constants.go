package models

const (
	StatusWaiting  = "WAITING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
)

const (
	// DefaultPageFrom и DefaultPageSize применяются, когда клиент не передал пагинацию
	DefaultPageFrom = 0
	DefaultPageSize = 10

	// CreateBookingRateLimit количество создаваемых бронирований на пользователя в окне
	CreateBookingRateLimit = 30

	// CreateBookingRateWindow окно ограничения частоты создания бронирований
	CreateBookingRateWindow = 60 // секунды

	// ItemViewCacheTTL время жизни кэшированного представления вещи
	ItemViewCacheTTL = 5 * 60 // секунды
)
