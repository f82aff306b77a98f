package grid

import (
	"database/sql"
	"encoding/csv"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// Column aliases accepted in census CSV exports. The raw German census grid
// ships with the long names; preprocessed files use the short ones.
var csvAliases = map[string][]string{
	"id":          {"id", "gitter_id_100m"},
	"x":           {"x", "x_mp_100m"},
	"y":           {"y", "y_mp_100m"},
	"population":  {"population", "bevoelkerungszahl"},
	"district_id": {"district_id"},
}

// LoadCSV reads the population grid from a semicolon-separated CSV export.
// Rows with unparsable centroids are skipped and logged; population and
// district values that fail to parse become nil.
func LoadCSV(path string, cellSizeM float64) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "grid: open csv %s", path)
	}
	defer f.Close() //nolint:errcheck

	r := csv.NewReader(f)
	r.Comma = ';'
	r.ReuseRecord = false

	header, err := r.Read()
	if err != nil {
		return nil, eris.Wrapf(err, "grid: read csv header %s", path)
	}
	header[0] = strings.TrimPrefix(header[0], "\uFEFF")

	idx, err := resolveColumns(header)
	if err != nil {
		return nil, err
	}

	var cells []Cell
	var skipped int
	for {
		rec, err := r.Read()
		if err != nil {
			break
		}

		x, xErr := strconv.ParseFloat(rec[idx["x"]], 64)
		y, yErr := strconv.ParseFloat(rec[idx["y"]], 64)
		if xErr != nil || yErr != nil {
			skipped++
			zap.L().Warn("grid: skipping row with bad centroid",
				zap.String("id", rec[idx["id"]]),
				zap.String("raw_x", rec[idx["x"]]),
				zap.String("raw_y", rec[idx["y"]]),
			)
			continue
		}

		cells = append(cells, Cell{
			ID:         rec[idx["id"]],
			X:          x,
			Y:          y,
			Population: parseOptionalInt(rec[idx["population"]]),
			DistrictID: parseOptionalInt(rec[idx["district_id"]]),
		})
	}

	zap.L().Info("grid: loaded csv",
		zap.String("path", path),
		zap.Int("cells", len(cells)),
		zap.Int("skipped", skipped),
	)
	return NewStore(cells, cellSizeM), nil
}

// LoadSQLite reads the population grid from a prepared SQLite file with a
// grid_cells(id, x, y, population, district_id) table.
func LoadSQLite(path string, cellSizeM float64) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrapf(err, "grid: open sqlite %s", path)
	}
	defer db.Close() //nolint:errcheck

	rows, err := db.Query(`SELECT id, x, y, population, district_id FROM grid_cells ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "grid: query grid_cells")
	}
	defer rows.Close() //nolint:errcheck

	var cells []Cell
	for rows.Next() {
		var (
			c    Cell
			pop  sql.NullInt64
			dist sql.NullInt64
		)
		if err := rows.Scan(&c.ID, &c.X, &c.Y, &pop, &dist); err != nil {
			return nil, eris.Wrap(err, "grid: scan grid_cells row")
		}
		if pop.Valid {
			v := int(pop.Int64)
			c.Population = &v
		}
		if dist.Valid {
			v := int(dist.Int64)
			c.DistrictID = &v
		}
		cells = append(cells, c)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "grid: iterate grid_cells rows")
	}

	zap.L().Info("grid: loaded sqlite", zap.String("path", path), zap.Int("cells", len(cells)))
	return NewStore(cells, cellSizeM), nil
}

func resolveColumns(header []string) (map[string]int, error) {
	byName := make(map[string]int, len(header))
	for i, h := range header {
		byName[strings.ToLower(strings.TrimSpace(h))] = i
	}

	idx := make(map[string]int, len(csvAliases))
	for logical, aliases := range csvAliases {
		found := false
		for _, a := range aliases {
			if i, ok := byName[a]; ok {
				idx[logical] = i
				found = true
				break
			}
		}
		if !found {
			return nil, eris.Errorf("grid: csv missing column %q (accepted: %v)", logical, aliases)
		}
	}
	return idx, nil
}

func parseOptionalInt(raw string) *int {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "-" {
		return nil
	}
	// Some exports carry counts as floats.
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	v := int(f)
	return &v
}
