package dto

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// PaginationParams selects a window of a run's rows.
type PaginationParams struct {
	Page     int
	PageSize int
	Offset   int
}

func ParsePagination(c *gin.Context) PaginationParams {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(defaultPageSize)))

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	return PaginationParams{
		Page:     page,
		PageSize: pageSize,
		Offset:   (page - 1) * pageSize,
	}
}

// Within shrinks the page size to the run's row count so small runs report a
// single page instead of echoing the requested size.
func (p PaginationParams) Within(total int) PaginationParams {
	if total > 0 && total < p.PageSize {
		p.PageSize = total
		p.Offset = (p.Page - 1) * total
	}
	return p
}

func NewPagination(page, pageSize, totalItems int) Pagination {
	totalPages := 0
	if totalItems > 0 {
		totalPages = int(math.Ceil(float64(totalItems) / float64(pageSize)))
	}

	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		TotalItems: totalItems,
		TotalPages: totalPages,
	}
}
