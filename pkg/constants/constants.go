package constants

import "time"

// Префиксы ключей кэша
const (
	CacheKeyWorkOrder = "work_order:"
	CacheKeyPrincipal = "principal:"
)

const (
	DefaultCacheTTL = 5 * time.Minute
	PrincipalTTL    = 1 * time.Minute
)

// Формат человекочитаемого номера заказ-наряда: ГГММДД + 3 цифры.
// Уникальность гарантирует БД, сервис только предлагает значение.
const (
	WorkOrderNumberDateLayout = "060102"
	WorkOrderNumberSuffixMod  = 1000
)
