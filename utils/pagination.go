package utils

// DefaultPerPage используется, если размер страницы не задан
const DefaultPerPage = 10

// Page описывает страницу результатов
type Page struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	TotalPages int   `json:"total_pages"`
}

// NormalizePage приводит номер и размер страницы к допустимым значениям
func NormalizePage(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	return page, perPage
}

// NewPage рассчитывает количество страниц
func NewPage(page, perPage int, total int64) Page {
	page, perPage = NormalizePage(page, perPage)
	return Page{
		Total:      total,
		Page:       page,
		PerPage:    perPage,
		TotalPages: int((total + int64(perPage) - 1) / int64(perPage)),
	}
}

// Offset возвращает смещение первой записи страницы
func (p Page) Offset() int {
	return (p.Page - 1) * p.PerPage
}
