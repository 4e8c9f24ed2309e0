package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"darkzone_service/internal/domain/model"
)

func TestWriteKML(t *testing.T) {
	day := time.Date(2021, 3, 2, 0, 0, 0, 0, time.UTC)
	table := model.PredictionTable{
		Codes: []model.LitterCode{model.TotalLitter},
		Rows: []model.PredictionRow{
			{Date: day, EdgeID: "E1", EdgeOSMID: 42, OSMHighway: "residential", RowType: model.RowTypeDarkZone,
				Predicted: map[model.LitterCode]int64{model.TotalLitter: 3}},
			{Date: day, EdgeID: "E2", EdgeOSMID: 43, OSMHighway: "primary", RowType: model.RowTypeDarkZone,
				Predicted: map[model.LitterCode]int64{model.TotalLitter: 0}},
		},
	}
	boxes := EdgeBoxes([]model.EdgeGeometry{
		{EdgeID: "E1", Bounds: model.NormalizeBounds(47.0, 48.0, 7.0, 8.0)},
	})

	var buf bytes.Buffer
	require.NoError(t, WriteKML(&buf, table, boxes))
	out := buf.String()

	assert.Contains(t, out, `<kml xmlns="http://www.opengis.net/kml/2.2">`)
	assert.Contains(t, out, `<name>E1 2021-03-02</name>`)
	assert.Contains(t, out, `<SimpleData name="total_litter">3</SimpleData>`)
	assert.Contains(t, out, `<coordinates>7.5,47.5</coordinates>`)
	assert.Equal(t, 2, bytes.Count(buf.Bytes(), []byte("<Placemark>")))
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("<Point>")))
}
