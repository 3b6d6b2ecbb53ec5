package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/raushankrgupta/fitly-client/models"
)

// CreateProfile saves a body profile with its photos for later try-ons.
func (c *Client) CreateProfile(ctx context.Context, person models.Person, imagePaths []string) (models.Person, error) {
	if strings.TrimSpace(person.Name) == "" {
		return models.Person{}, errors.New("name is required")
	}
	if len(imagePaths) == 0 {
		return models.Person{}, errors.New("at least one image is required")
	}

	fields := sortedFields(map[string]string{
		"name":   person.Name,
		"gender": person.Gender,
		"age":    formatInt(person.Age),
		"height": formatFloat(person.Height),
		"weight": formatFloat(person.Weight),
		"chest":  formatFloat(person.Chest),
		"waist":  formatFloat(person.Waist),
		"hips":   formatFloat(person.Hips),
	})
	files := make([]formFile, 0, len(imagePaths))
	for _, path := range imagePaths {
		files = append(files, formFile{field: "images", path: path})
	}
	p, err := multipartPayload(fields, files)
	if err != nil {
		return models.Person{}, err
	}

	var out models.Person
	if err := c.do(ctx, http.MethodPost, "/create-profile", p, &out); err != nil {
		return models.Person{}, err
	}
	return out, nil
}

func formatInt(v int) string {
	if v == 0 {
		return ""
	}
	return strconv.Itoa(v)
}

func formatFloat(v float64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
