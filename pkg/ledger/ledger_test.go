package ledger

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"museumscraper/pkg/models"
)

func sampleRecords(n int) []models.Record {
	records := make([]models.Record, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, models.Record{
			Author:     fmt.Sprintf("Автор %d", i),
			Title:      fmt.Sprintf("Title; with delimiter %d", i),
			Material:   "Холст",
			Technique:  "масло",
			Dimensions: "50 x 60",
			Type:       "Живопись",
			Folder:     fmt.Sprintf("avtor-%d", i),
			Image:      fmt.Sprintf("%d.jpg", 100+i),
		})
	}
	return records
}

func writeLedger(t *testing.T, format, path string, records []models.Record) {
	t.Helper()
	l, err := Open(format, path)
	require.NoError(t, err)
	for _, r := range records {
		require.NoError(t, l.Append(r))
	}
	require.NoError(t, l.Close())
}

func TestLedgerRoundTrip(t *testing.T) {
	for _, format := range []string{FormatCSV, FormatJSON} {
		t.Run(format, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "out."+format)
			records := sampleRecords(5)

			l, err := Open(format, path)
			require.NoError(t, err)
			for _, r := range records {
				require.NoError(t, l.Append(r))
			}
			assert.Equal(t, len(records), l.Len())
			require.NoError(t, l.Close())

			loaded, err := Load(format, path)
			require.NoError(t, err)
			assert.Equal(t, records, loaded)
		})
	}
}

func TestLedgerReopenContinues(t *testing.T) {
	for _, format := range []string{FormatCSV, FormatJSON} {
		t.Run(format, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "out."+format)
			records := sampleRecords(4)

			first, err := Open(format, path)
			require.NoError(t, err)
			require.NoError(t, first.Append(records[0]))
			require.NoError(t, first.Append(records[1]))
			require.NoError(t, first.Close())

			second, err := Open(format, path)
			require.NoError(t, err)
			assert.Equal(t, 2, second.Len())
			require.NoError(t, second.Append(records[2]))
			require.NoError(t, second.Append(records[3]))
			require.NoError(t, second.Close())

			assert.Equal(t, records, second.Records())

			loaded, err := Load(format, path)
			require.NoError(t, err)
			assert.Equal(t, records, loaded)
		})
	}
}

func TestCSVHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")

	l, err := Open(FormatCSV, path)
	require.NoError(t, err)
	require.NoError(t, l.Append(models.Record{Author: "A", Folder: "a", Image: "1.jpg"}))
	require.NoError(t, l.Close())

	// reopening must not repeat the header
	l, err = Open(FormatCSV, path)
	require.NoError(t, err)
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Author;Title;Material;Technique;Dimensions;Type;Folder;Image", lines[0])
	assert.Equal(t, "A;;;;;;a;1.jpg", lines[1])
}

// flakyFile writes half of the next row and fails, once
type flakyFile struct {
	*os.File
	failNext bool
}

func (f *flakyFile) Write(p []byte) (int, error) {
	if f.failNext {
		f.failNext = false
		n, _ := f.File.Write(p[:len(p)/2])
		return n, errors.New("no space left on device")
	}
	return f.File.Write(p)
}

func TestCSVAppendRecoversFromFailedWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")

	l, err := OpenCSV(path)
	require.NoError(t, err)
	flaky := &flakyFile{File: l.file.(*os.File)}
	l.file = flaky

	require.NoError(t, l.Append(models.Record{Author: "A", Folder: "a", Image: "1.jpg"}))

	flaky.failNext = true
	assert.Error(t, l.Append(models.Record{Author: "Broken", Folder: "b", Image: "2.jpg"}))
	assert.Equal(t, 1, l.Len())

	require.NoError(t, l.Append(models.Record{Author: "C", Folder: "c", Image: "3.jpg"}))
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Author;Title;Material;Technique;Dimensions;Type;Folder;Image\nA;;;;;;a;1.jpg\nC;;;;;;c;3.jpg\n", string(data))

	records, err := Load(FormatCSV, path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "C", records[1].Author)
}

func TestCSVEmptyLedgerHasHeaderOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")

	l, err := Open(FormatCSV, path)
	require.NoError(t, err)
	require.NoError(t, l.Close())

	records, err := Load(FormatCSV, path)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestDeferredCreatesNothingUntilAppend(t *testing.T) {
	for _, format := range []string{FormatCSV, FormatJSON} {
		t.Run(format, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "harvest")
			path := filepath.Join(dir, "out."+format)

			l, err := OpenDeferred(format, path)
			require.NoError(t, err)
			assert.Equal(t, 0, l.Len())
			require.NoError(t, l.Close())

			_, err = os.Stat(dir)
			assert.True(t, os.IsNotExist(err), "nothing is created without an append")

			l, err = OpenDeferred(format, path)
			require.NoError(t, err)
			require.NoError(t, l.Append(models.Record{Author: "A", Folder: "a", Image: "1.jpg"}))
			require.NoError(t, l.Close())

			records, err := Load(format, path)
			require.NoError(t, err)
			assert.Len(t, records, 1)
		})
	}
}

func TestDeferredSeesExistingRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	writeLedger(t, FormatCSV, path, sampleRecords(2))

	l, err := OpenDeferred(FormatCSV, path)
	require.NoError(t, err)
	defer l.Close()

	assert.Equal(t, sampleRecords(2), l.Records())

	extra := models.Record{Title: "Vase", Folder: "unsorted", Image: "55.jpg"}
	require.NoError(t, l.Append(extra))
	assert.Equal(t, 3, l.Len())
	assert.Equal(t, extra, l.Records()[2])
}

func TestDeferredUnknownFormat(t *testing.T) {
	_, err := OpenDeferred("xml", filepath.Join(t.TempDir(), "out.xml"))
	assert.Error(t, err)
}

func TestJSONLedgerKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")

	l, err := Open(FormatJSON, path)
	require.NoError(t, err)
	require.NoError(t, l.Append(sampleRecords(1)[0]))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	for _, key := range []string{"author", "title", "material", "technique", "dimensions", "type", "folder", "image"} {
		assert.Contains(t, string(data), `"`+key+`"`)
	}

	matches, err := filepath.Glob(path + ".*.tmp")
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestOpenUnknownFormat(t *testing.T) {
	_, err := Open("xml", filepath.Join(t.TempDir(), "out.xml"))
	assert.Error(t, err)
}

func TestLoadMissingLedger(t *testing.T) {
	_, err := Load(FormatCSV, filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestOpenCorruptJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := Open(FormatJSON, path)
	assert.Error(t, err)
}

func TestExportJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	records := sampleRecords(3)

	require.NoError(t, Export(records, FormatJSON, path))

	loaded, err := Load(FormatJSON, path)
	require.NoError(t, err)
	assert.Equal(t, records, loaded)
}

func TestExportParquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.parquet")
	records := sampleRecords(3)

	require.NoError(t, Export(records, FormatParquet, path))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()
	info, err := file.Stat()
	require.NoError(t, err)

	pf, err := parquet.OpenFile(file, info.Size())
	require.NoError(t, err)
	assert.Equal(t, int64(len(records)), pf.NumRows())

	reader := parquet.NewGenericReader[models.Record](pf)
	defer reader.Close()

	rows := make([]models.Record, len(records))
	n, _ := reader.Read(rows)
	require.Equal(t, len(records), n)
	assert.Equal(t, records, rows)
}

func TestExportUnknownFormat(t *testing.T) {
	assert.Error(t, Export(nil, "xml", filepath.Join(t.TempDir(), "out.xml")))
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, FormatJSON, FormatFromPath("out.JSON"))
	assert.Equal(t, FormatParquet, FormatFromPath("a/b.parquet"))
	assert.Equal(t, FormatCSV, FormatFromPath("out.csv"))
	assert.Equal(t, FormatCSV, FormatFromPath("ledger"))
}
