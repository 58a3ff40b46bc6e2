package dto

type EnrichmentQuery struct {
	Format string `form:"format" binding:"omitempty,oneof=json csv"`
}
