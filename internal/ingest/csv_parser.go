package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/estia-crm/matchmaking/internal/matchmaking"
	"github.com/estia-crm/matchmaking/internal/models"
)

// requiredColumns must all be present in the header row.
var requiredColumns = []string{"id"}

// knownColumns is the full set of columns the importer understands. Extra
// columns produce a warning and are ignored.
var knownColumns = map[string]struct{}{
	"id": {}, "title": {}, "price": {}, "type": {}, "transaction_type": {},
	"status": {}, "area": {}, "city": {}, "municipality": {}, "state": {},
	"bedrooms": {}, "bathrooms": {}, "net_sqm": {}, "gross_sqm": {},
	"square_feet": {}, "floor": {}, "has_elevator": {}, "pets_allowed": {},
	"has_parking": {}, "furnished": {}, "heating": {}, "energy_class": {},
	"condition": {}, "amenities": {},
}

// ParseProperties reads a property listing CSV, returning parsed records,
// validation warnings, and any fatal error. Warnings are non-fatal (unknown
// columns, skipped rows); a missing required column is fatal.
func ParseProperties(reader io.Reader, tenantID uuid.UUID) (
	properties []models.PropertyForMatching,
	warnings []string,
	err error,
) {
	properties = make([]models.PropertyForMatching, 0)
	warnings = make([]string, 0)

	csvReader := csv.NewReader(reader)
	csvReader.FieldsPerRecord = -1 // Allow variable number of fields

	headers, err := csvReader.Read()
	if err != nil {
		if err == io.EOF {
			return properties, warnings, fmt.Errorf("CSV file is empty")
		}
		return properties, warnings, fmt.Errorf("failed to read CSV headers: %v", err)
	}

	for i, h := range headers {
		headers[i] = strings.ToLower(strings.TrimSpace(h))
	}

	headerSet := make(map[string]struct{}, len(headers))
	for _, h := range headers {
		headerSet[h] = struct{}{}
		if _, known := knownColumns[h]; !known {
			warnings = append(warnings, fmt.Sprintf("unknown column %q ignored", h))
		}
	}
	for _, required := range requiredColumns {
		if _, ok := headerSet[required]; !ok {
			return properties, warnings, fmt.Errorf("missing required column %q", required)
		}
	}

	lineNum := 2 // Start at line 2 since line 1 is headers

	for {
		csvRow, err := csvReader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return properties, warnings, fmt.Errorf("line %d: failed to read CSV row: %v", lineNum, err)
		}

		rowMap := make(map[string]string)
		for i, header := range headers {
			if i < len(csvRow) {
				rowMap[header] = strings.TrimSpace(csvRow[i])
			} else {
				rowMap[header] = ""
			}
		}

		if rowMap["id"] == "" {
			warnings = append(warnings, fmt.Sprintf("row %d skipped: missing id", lineNum))
			lineNum++
			continue
		}

		property, rowWarnings := buildProperty(rowMap, tenantID, lineNum)
		warnings = append(warnings, rowWarnings...)
		properties = append(properties, property)
		lineNum++
	}

	return properties, warnings, nil
}

func buildProperty(row map[string]string, tenantID uuid.UUID, lineNum int) (models.PropertyForMatching, []string) {
	var warnings []string

	parseFloat := func(column string) *float64 {
		raw := row[column]
		if raw == "" {
			return nil
		}
		v := matchmaking.ToNumber(raw)
		if v == nil {
			warnings = append(warnings, fmt.Sprintf("row %d: malformed %s %q ignored", lineNum, column, raw))
		}
		return v
	}

	parseInt := func(column string) *int {
		v := parseFloat(column)
		if v == nil {
			return nil
		}
		i := int(*v)
		return &i
	}

	parseBool := func(column string) *bool {
		raw := strings.ToLower(row[column])
		switch raw {
		case "":
			return nil
		case "true", "yes", "1":
			v := true
			return &v
		case "false", "no", "0":
			v := false
			return &v
		default:
			warnings = append(warnings, fmt.Sprintf("row %d: malformed %s %q ignored", lineNum, column, row[column]))
			return nil
		}
	}

	status := strings.ToUpper(row["status"])
	if status == "" {
		status = "ACTIVE"
	}

	property := models.PropertyForMatching{
		ID:              row["id"],
		TenantID:        tenantID,
		Title:           row["title"],
		Price:           parseFloat("price"),
		Type:            row["type"],
		TransactionType: strings.ToUpper(row["transaction_type"]),
		Status:          status,
		Area:            row["area"],
		City:            row["city"],
		Municipality:    row["municipality"],
		State:           row["state"],
		Bedrooms:        parseInt("bedrooms"),
		Bathrooms:       parseInt("bathrooms"),
		NetSqm:          parseFloat("net_sqm"),
		GrossSqm:        parseFloat("gross_sqm"),
		SquareFeet:      parseFloat("square_feet"),
		Floor:           row["floor"],
		HasElevator:     parseBool("has_elevator"),
		PetsAllowed:     parseBool("pets_allowed"),
		HasParking:      parseBool("has_parking"),
		Furnished:       row["furnished"],
		Heating:         row["heating"],
		EnergyClass:     row["energy_class"],
		Condition:       row["condition"],
		CreatedAt:       time.Now().UTC(),
	}

	if amenities := splitAmenities(row["amenities"]); len(amenities) > 0 {
		property.Amenities = amenities
	}

	return property, warnings
}

// splitAmenities splits a pipe- or semicolon-separated amenity list.
func splitAmenities(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	sep := "|"
	if !strings.Contains(raw, "|") && strings.Contains(raw, ";") {
		sep = ";"
	}

	var amenities []string
	for _, part := range strings.Split(raw, sep) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			amenities = append(amenities, trimmed)
		}
	}
	return amenities
}
