package http

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mrlokans/bookstore/internal/entities"
)

// bookForm holds the add/edit form exactly as submitted, so a rejected
// submission can be shown again with the user's input.
type bookForm struct {
	Title           string   `form:"title"`
	Price           string   `form:"price"`
	ConditionStatus string   `form:"condition_status"`
	CategoryID      string   `form:"category_id"`
	AuthorIDs       []string `form:"author_ids"`
}

func bookFormFromDetails(d *entities.BookDetails) bookForm {
	form := bookForm{
		Title:           d.Title,
		Price:           strconv.FormatFloat(d.Price, 'f', -1, 64),
		ConditionStatus: string(d.ConditionStatus),
		CategoryID:      strconv.FormatUint(uint64(d.CategoryID), 10),
	}
	for _, id := range d.AuthorIDs {
		form.AuthorIDs = append(form.AuthorIDs, strconv.FormatUint(uint64(id), 10))
	}
	return form
}

// Input converts the form, rejecting values that cannot be stored
// (non-numeric price, unknown status) before anything reaches the store.
func (f bookForm) Input() (entities.BookInput, error) {
	in := entities.BookInput{Title: strings.TrimSpace(f.Title)}
	if in.Title == "" {
		return in, errors.New("title is required")
	}

	price, err := strconv.ParseFloat(strings.TrimSpace(f.Price), 64)
	if err != nil || math.IsNaN(price) || math.IsInf(price, 0) {
		return in, errors.New("price must be a number")
	}
	in.Price = price

	status, err := entities.ParseConditionStatus(f.ConditionStatus)
	if err != nil {
		return in, err
	}
	in.ConditionStatus = status

	categoryID, err := strconv.ParseUint(strings.TrimSpace(f.CategoryID), 10, 32)
	if err != nil || categoryID == 0 {
		return in, errors.New("category is required")
	}
	in.CategoryID = uint(categoryID)

	for _, raw := range f.AuthorIDs {
		id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 32)
		if err != nil {
			return in, fmt.Errorf("invalid author id %q", raw)
		}
		in.AuthorIDs = append(in.AuthorIDs, uint(id))
	}

	return in, in.Validate()
}

func (f bookForm) HasAuthor(id uint) bool {
	want := strconv.FormatUint(uint64(id), 10)
	for _, a := range f.AuthorIDs {
		if a == want {
			return true
		}
	}
	return false
}

func (f bookForm) IsCategory(id uint) bool {
	return f.CategoryID == strconv.FormatUint(uint64(id), 10)
}

func (f bookForm) IsStatus(s entities.ConditionStatus) bool {
	return f.ConditionStatus == string(s)
}

// bookRequest is the JSON body of the book API.
type bookRequest struct {
	Title           string   `json:"title"`
	Price           *float64 `json:"price"`
	ConditionStatus string   `json:"condition_status"`
	CategoryID      uint     `json:"category_id"`
	AuthorIDs       []uint   `json:"author_ids"`
}

func (r bookRequest) Input() (entities.BookInput, error) {
	if r.Price == nil {
		return entities.BookInput{}, errors.New("price is required")
	}
	status, err := entities.ParseConditionStatus(r.ConditionStatus)
	if err != nil {
		return entities.BookInput{}, err
	}
	in := entities.BookInput{
		Title:           strings.TrimSpace(r.Title),
		Price:           *r.Price,
		ConditionStatus: status,
		CategoryID:      r.CategoryID,
		AuthorIDs:       r.AuthorIDs,
	}
	return in, in.Validate()
}
