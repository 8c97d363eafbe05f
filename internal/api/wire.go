package api

import "course-admin/internal/domain"

// envelope wraps every backend response.
type envelope[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

// courseRecord is the backend's shape of a course. Only the title is renamed.
type courseRecord struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Image       string  `json:"image"`
}

// courseBody is what create and update send. The id travels in the path.
type courseBody struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Image       string  `json:"image"`
}

type uploadData struct {
	ImageURL string `json:"imageUrl"`
}

func (r courseRecord) toCourse() domain.Course {
	return domain.Course{
		ID:          r.ID,
		Title:       r.Name,
		Description: r.Description,
		Price:       r.Price,
		Image:       domain.HostedImage(r.Image),
	}
}

func bodyFromDraft(d domain.Draft) courseBody {
	return courseBody{
		Name:        d.Title,
		Description: d.Description,
		Price:       d.Price,
		Image:       d.Image.URL(),
	}
}

func bodyFromCourse(c domain.Course) courseBody {
	return courseBody{
		Name:        c.Title,
		Description: c.Description,
		Price:       c.Price,
		Image:       c.Image.URL(),
	}
}
