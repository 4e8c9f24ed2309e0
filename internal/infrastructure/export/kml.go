// Package export renders dark-zone predictions for GIS tools.
package export

import (
	"fmt"
	"io"
	"strconv"

	"github.com/twpayne/go-kml"

	"darkzone_service/internal/domain/model"
)

const schemaID = "darkzone"

// WriteKML writes one placemark per prediction row, placed at the centre of
// the edge box when the edge is in boxes. Predicted counts are attached as
// typed extended data.
func WriteKML(w io.Writer, table model.PredictionTable, boxes map[string]model.Bounds) error {
	fields := []kml.Element{
		kml.SimpleField(model.ColDate, "string"),
		kml.SimpleField(model.ColEdgeID, "string"),
		kml.SimpleField(model.ColEdgeOSMID, "int"),
		kml.SimpleField(model.ColOSMHighway, "string"),
	}
	for _, code := range table.Codes {
		fields = append(fields, kml.SimpleField(code.String(), "int"))
	}

	children := []kml.Element{
		kml.Name("Litter dark zones"),
		kml.Schema(schemaID, schemaID, fields...),
	}
	for _, row := range table.Rows {
		children = append(children, placemark(row, table.Codes, boxes))
	}

	if err := kml.KML(kml.Document(children...)).WriteIndent(w, "", "  "); err != nil {
		return fmt.Errorf("failed to write kml: %w", err)
	}
	return nil
}

// EdgeBoxes indexes an edge geometry feed by edge ID.
func EdgeBoxes(edges []model.EdgeGeometry) map[string]model.Bounds {
	boxes := make(map[string]model.Bounds, len(edges))
	for _, e := range edges {
		boxes[e.EdgeID] = e.Bounds
	}
	return boxes
}

func placemark(row model.PredictionRow, codes []model.LitterCode, boxes map[string]model.Bounds) kml.Element {
	data := []kml.Element{
		kml.SimpleData(model.ColDate, model.DateKey(row.Date)),
		kml.SimpleData(model.ColEdgeID, row.EdgeID),
		kml.SimpleData(model.ColEdgeOSMID, strconv.FormatInt(row.EdgeOSMID, 10)),
		kml.SimpleData(model.ColOSMHighway, row.OSMHighway),
	}
	description := ""
	for _, code := range codes {
		n := row.Predicted[code]
		data = append(data, kml.SimpleData(code.String(), strconv.FormatInt(n, 10)))
		description += fmt.Sprintf("%s: %d\n", code.Label(), n)
	}

	elements := []kml.Element{
		kml.Name(fmt.Sprintf("%s %s", row.EdgeID, model.DateKey(row.Date))),
		kml.Description(description),
		kml.TimeStamp(kml.When(row.Date)),
		kml.ExtendedData(kml.SchemaData("#"+schemaID, data...)),
	}
	if b, ok := boxes[row.EdgeID]; ok {
		lat, lon := b.Centre()
		elements = append(elements, kml.Point(kml.Coordinates(kml.Coordinate{Lon: lon, Lat: lat})))
	}
	return kml.Placemark(elements...)
}
