package util

const DefaultPageSize = 10

const MaxPageSize = 100

// Calculate clamps page/size and converts them to an offset/limit pair.
func Calculate(page, size int) (from, limit int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > MaxPageSize {
		size = DefaultPageSize
	}
	from = (page - 1) * size
	return from, size
}
