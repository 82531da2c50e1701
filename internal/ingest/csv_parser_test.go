package ingest

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProperties_FullRow(t *testing.T) {
	csv := strings.Join([]string{
		"id,title,price,type,transaction_type,area,bedrooms,net_sqm,floor,has_elevator,furnished,amenities",
		`p-1,Sunny flat,250000,apartment,SALE,Κολωνάκι,2,85,Ισόγειο,yes,furnished,Swimming Pool|Garden`,
	}, "\n")

	tenantID := uuid.New()
	properties, warnings, err := ParseProperties(strings.NewReader(csv), tenantID)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.Len(t, properties, 1)

	p := properties[0]
	assert.Equal(t, "p-1", p.ID)
	assert.Equal(t, tenantID, p.TenantID)
	assert.Equal(t, "Sunny flat", p.Title)
	require.NotNil(t, p.Price)
	assert.Equal(t, 250000.0, *p.Price)
	assert.Equal(t, "SALE", p.TransactionType)
	assert.Equal(t, "ACTIVE", p.Status)
	require.NotNil(t, p.Bedrooms)
	assert.Equal(t, 2, *p.Bedrooms)
	require.NotNil(t, p.NetSqm)
	assert.Equal(t, 85.0, *p.NetSqm)
	assert.Equal(t, "Ισόγειο", p.Floor)
	require.NotNil(t, p.HasElevator)
	assert.True(t, *p.HasElevator)
	assert.Equal(t, []string{"Swimming Pool", "Garden"}, p.Amenities)
}

func TestParseProperties_MissingIDColumnIsFatal(t *testing.T) {
	csv := "title,price\nSunny flat,250000\n"

	_, _, err := ParseProperties(strings.NewReader(csv), uuid.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "id")
}

func TestParseProperties_EmptyFileIsFatal(t *testing.T) {
	_, _, err := ParseProperties(strings.NewReader(""), uuid.New())
	require.Error(t, err)
}

func TestParseProperties_RowWithoutIDSkippedWithWarning(t *testing.T) {
	csv := strings.Join([]string{
		"id,title",
		",No id here",
		"p-2,Has an id",
	}, "\n")

	properties, warnings, err := ParseProperties(strings.NewReader(csv), uuid.New())
	require.NoError(t, err)
	require.Len(t, properties, 1)
	assert.Equal(t, "p-2", properties[0].ID)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "row 2")
}

func TestParseProperties_MalformedValuesWarnAndNil(t *testing.T) {
	csv := strings.Join([]string{
		"id,price,bedrooms,has_parking",
		"p-1,cheap,two,maybe",
	}, "\n")

	properties, warnings, err := ParseProperties(strings.NewReader(csv), uuid.New())
	require.NoError(t, err)
	require.Len(t, properties, 1)

	p := properties[0]
	assert.Nil(t, p.Price)
	assert.Nil(t, p.Bedrooms)
	assert.Nil(t, p.HasParking)
	assert.Len(t, warnings, 3)
}

func TestParseProperties_UnknownColumnWarns(t *testing.T) {
	csv := strings.Join([]string{
		"id,title,mystery_field",
		"p-1,Flat,whatever",
	}, "\n")

	properties, warnings, err := ParseProperties(strings.NewReader(csv), uuid.New())
	require.NoError(t, err)
	require.Len(t, properties, 1)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "mystery_field")
}

func TestParseProperties_ShortRowsPadded(t *testing.T) {
	csv := strings.Join([]string{
		"id,title,price",
		"p-1,Flat",
	}, "\n")

	properties, warnings, err := ParseProperties(strings.NewReader(csv), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.Len(t, properties, 1)
	assert.Nil(t, properties[0].Price)
}

func TestSplitAmenities_Separators(t *testing.T) {
	assert.Equal(t, []string{"pool", "garden"}, splitAmenities("pool|garden"))
	assert.Equal(t, []string{"pool", "garden"}, splitAmenities("pool; garden"))
	assert.Nil(t, splitAmenities("  "))
}
