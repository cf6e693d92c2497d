package calendar

// Page описывает одну страницу элементов.
type Page[T any] struct {
	Items    []T // элементы на текущей странице
	Page     int // номер страницы (с 1)
	PageSize int // количество элементов на странице
	HasNext  bool
	HasPrev  bool
	Total    int64 // общее количество элементов
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Normalize приводит page и pageSize к допустимым значениям.
func Normalize(page, pageSize int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

// Offset — смещение для LIMIT/OFFSET по номеру страницы.
func Offset(page, pageSize int) int {
	page, pageSize = Normalize(page, pageSize)
	return (page - 1) * pageSize
}

// NewPage собирает страницу из уже выбранных элементов и общего количества.
func NewPage[T any](items []T, page, pageSize int, total int64) Page[T] {
	page, pageSize = Normalize(page, pageSize)
	end := int64(Offset(page, pageSize) + len(items))

	return Page[T]{
		Items:    items,
		Page:     page,
		PageSize: pageSize,
		HasPrev:  page > 1,
		HasNext:  end < total,
		Total:    total,
	}
}

// Paginate режет срез items в памяти.
func Paginate[T any](items []T, page, pageSize int) Page[T] {
	page, pageSize = Normalize(page, pageSize)
	total := len(items)

	start := Offset(page, pageSize)
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	return NewPage(items[start:end], page, pageSize, int64(total))
}
