package reconcile

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/hostel-console-api/internal/models"
)

func TestPickSkipsEmptyValues(t *testing.T) {
	rec := models.Record{"hostelName": "  ", "hostel": map[string]interface{}{"name": nil}, "room": map[string]interface{}{"hostel": map[string]interface{}{"name": "North Wing"}}}

	v, ok := Pick(rec, HostelNameAliases...)
	assert.True(t, ok)
	assert.Equal(t, "North Wing", v)
}

func TestPickMissingIntermediateSegment(t *testing.T) {
	rec := models.Record{"room": "101"}

	_, ok := Pick(rec, "room.hostel.name", "missing.path")
	assert.False(t, ok)
	assert.Equal(t, "", PickString(models.Record{}, "a.b.c"))
	assert.Equal(t, "", PickString(nil, "a"))
}

func TestPickStringSkipsObjects(t *testing.T) {
	rec := models.Record{"room": map[string]interface{}{"number": json.Number("204")}, "roomNumber": map[string]interface{}{}}

	assert.Equal(t, "204", PickString(rec, "roomNumber", "room.number"))
}

func TestPickNumbers(t *testing.T) {
	rec := models.Record{"totalFee": "60000", "amountPaid": json.Number("25000.50"), "capacity": "3", "beds": 2.0}

	total, ok := PickDecimal(rec, TotalFeeAliases...)
	assert.True(t, ok)
	assert.Equal(t, "60000", total.String())

	paid, ok := PickDecimal(rec, AmountPaidAliases...)
	assert.True(t, ok)
	assert.Equal(t, "25000.5", paid.String())

	_, ok = PickDecimal(models.Record{"totalFee": "n/a"}, TotalFeeAliases...)
	assert.False(t, ok)

	n, ok := PickInt(rec, CapacityAliases...)
	assert.True(t, ok)
	assert.Equal(t, 3, n)

	n, ok = PickInt(models.Record{"beds": 2.0}, CapacityAliases...)
	assert.True(t, ok)
	assert.Equal(t, 2, n)
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Ann Lee", DisplayName(models.Record{"name": " Ann Lee "}))
	assert.Equal(t, "Ann Lee", DisplayName(models.Record{"firstName": "Ann", "lastName": "Lee"}))
	assert.Equal(t, "Ann", DisplayName(models.Record{"student": map[string]interface{}{"firstName": "Ann"}}))
	assert.Equal(t, "", DisplayName(models.Record{}))
}

func TestSplitName(t *testing.T) {
	first, last := SplitName("Mary Ann  de Souza")
	assert.Equal(t, "Mary", first)
	assert.Equal(t, "Ann de Souza", last)

	first, last = SplitName("Ann")
	assert.Equal(t, "Ann", first)
	assert.Equal(t, "", last)
}
