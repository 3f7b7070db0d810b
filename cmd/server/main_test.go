package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	pointsCSV = "store_name,company_name,store_address,longitude,latitude\n" +
		"A,統一超商股份有限公司,addr 1,121.5050,25.0050\n" +
		"B,全家便利商店股份有限公司,addr 2,121.5150,25.0050\n"
	gridCSV = "geometry_wkt,convenience_store_count,county_name\n" +
		"\"POLYGON ((121.50 25.00, 121.51 25.00, 121.51 25.01, 121.50 25.01, 121.50 25.00))\",1,臺北市\n" +
		"\"POLYGON ((121.51 25.00, 121.52 25.00, 121.52 25.01, 121.51 25.01, 121.51 25.00))\",4,新北市\n"
)

func writeFixtures(t *testing.T) (dir, configPath string) {
	t.Helper()
	dir = t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "points.csv"), []byte(pointsCSV), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "grid.csv"), []byte(gridCSV), 0644))

	cfg := fmt.Sprintf(`data:
  backend: file
  points_path: %[1]s/points.csv
  grid_path: %[1]s/grid.csv
  driver: sqlite
  dsn: %[1]s/webgis.db
log:
  level: warn
  path: %[1]s/webgis.log
`, dir)
	configPath = filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(cfg), 0644))
	return dir, configPath
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestStatsCommand(t *testing.T) {
	_, cfg := writeFixtures(t)

	out, err := run(t, "stats", "-c", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "新北市")
	assert.Contains(t, out, "合計")

	out, err = run(t, "stats", "--json", "-c", cfg)
	require.NoError(t, err)
	var v struct {
		Table []struct {
			CountyName string `json:"county_name"`
		} `json:"table"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	require.Len(t, v.Table, 2)
	assert.Equal(t, "新北市", v.Table[0].CountyName)
}

func TestExportCommand(t *testing.T) {
	dir, cfg := writeFixtures(t)
	path := filepath.Join(dir, "grid.geojson")

	_, err := run(t, "export", "-c", cfg, "-o", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var fc struct {
		Type     string            `json:"type"`
		Features []json.RawMessage `json:"features"`
	}
	require.NoError(t, json.Unmarshal(data, &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	assert.Len(t, fc.Features, 2)
}

func TestImportCommand(t *testing.T) {
	_, cfg := writeFixtures(t)

	out, err := run(t, "import", "-c", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "imported 2 points, 2 grid cells")
}

func TestMissingConfigFile(t *testing.T) {
	_, err := run(t, "stats", "-c", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
