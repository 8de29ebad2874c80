package reconcile

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/inventory-matcher/internal/config"
	"github.com/ginjaninja78/inventory-matcher/internal/normalize"
	"github.com/ginjaninja78/inventory-matcher/internal/resolver"
	"github.com/ginjaninja78/inventory-matcher/internal/table"
	"github.com/ginjaninja78/inventory-matcher/internal/types"
	"github.com/ginjaninja78/inventory-matcher/internal/validation"
	"github.com/ginjaninja78/inventory-matcher/internal/xlsxparser"
)

var lt24Headers = []string{
	"Transfer Order Number", "Material", "Source target qty", "Dest.target quantity",
	"Confirmation date", "Confirmation time", "User", "Source Storage Bin", "Dest.Storage Bin",
}

func invTable(rows ...[]string) *table.Table {
	return table.New("inv.xlsx", []string{"Material", "Menge in ErfassME", "Buchungsdatum", "Werk"}, rows)
}

func lt24Table(rows ...[]string) *table.Table {
	return table.New("lt24.xlsx", lt24Headers, rows)
}

type recordingObserver struct {
	progress []float64
	target   []KeyPreview
	source   []KeyPreview
	summary  *Summary
}

func (o *recordingObserver) Progress(f float64)                  { o.progress = append(o.progress, f) }
func (o *recordingObserver) Preview(target, source []KeyPreview) { o.target, o.source = target, source }
func (o *recordingObserver) Summary(s Summary)                   { o.summary = &s }

func newReconciler(t *testing.T, cfg *config.Config, obs Observer) *Reconciler {
	t.Helper()
	r, err := New(cfg, nil, obs)
	require.NoError(t, err)
	return r
}

func TestRun_EnrichesMatchedRows(t *testing.T) {
	// Arrange
	target := invTable(
		[]string{"123", "-10", "05.03.2024", "W1"},
		[]string{"500", "5", "10.01.2024", "W1"},
		[]string{"999", "1", "10.01.2024", "W1"},
	)
	source := lt24Table(
		[]string{"TO-1", "123.0", "0", "10", "05.03.2024", "0.6", "ANNA", "KORREKTUR", ""},
		[]string{"TO-2", "500", "5", "", "11.01.2024", "08:00:00", "BOB", "0000005194", ""},
	)
	obs := &recordingObserver{}

	// Act
	result, err := newReconciler(t, config.Default(), obs).Run(context.Background(), target, source)

	// Assert
	require.NoError(t, err)
	require.Len(t, result.Rows, 3)

	first := result.Rows[0]
	assert.Equal(t, types.StatusFound, first.Status)
	assert.Equal(t, "ANNA", first.Operator)
	assert.Equal(t, "14:24:00", first.Time)
	assert.Equal(t, "Manual correction", first.MovementType)
	assert.Equal(t, "TO-1", first.TransferOrder)
	assert.Equal(t, 0, first.SourceRow)

	assert.Equal(t, types.StatusFound, result.Rows[1].Status, "one day apart is inside the default window")
	assert.Equal(t, "Physical count", result.Rows[1].MovementType)

	assert.Equal(t, types.StatusNotFound, result.Rows[2].Status)
	assert.Equal(t, -1, result.Rows[2].SourceRow)
	assert.Empty(t, result.Rows[2].Operator)

	enriched := result.Table
	assert.Equal(t, []string{
		"Material", "Menge in ErfassME", "Buchungsdatum", "Werk",
		"User (LT24)", "Time (LT24)", "Movement Type", "TO Number", "Status", "Reason (fill in)",
	}, enriched.Headers)
	assert.Equal(t, []string{"123", "-10", "05.03.2024", "W1", "ANNA", "14:24:00", "Manual correction", "TO-1", "Matched", ""}, enriched.Rows[0])
	assert.Equal(t, "Not found", enriched.Rows[2][8])
	assert.Len(t, target.Headers, 4, "input table is not modified")

	require.NotNil(t, obs.summary)
	assert.Equal(t, 3, obs.summary.Total)
	assert.Equal(t, 2, obs.summary.Matched)
	assert.Equal(t, 1, obs.summary.Unmatched)
	assert.Equal(t, 0, obs.summary.SourceRemaining)
	assert.Equal(t, 1.0, obs.progress[len(obs.progress)-1])
	assert.Equal(t, KeyPreview{Row: 1, Material: "123", Quantity: 10, Date: "2024-03-05"}, obs.target[0])
	assert.Equal(t, "123", obs.source[0].Material)
}

func TestRun_MissingColumnAbortsBeforeMatching(t *testing.T) {
	target := table.New("inv.csv", []string{"Material", "Buchungsdatum"}, [][]string{{"1", "2024-01-01"}})
	source := table.New("lt24.csv", []string{"Material", "Confirmation date"}, [][]string{{"1", "2024-01-01"}})
	obs := &recordingObserver{}

	result, err := newReconciler(t, config.Default(), obs).Run(context.Background(), target, source)

	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, errors.Is(err, resolver.ErrMissingColumn))
	assert.Empty(t, obs.progress, "no row was processed")

	var mc *resolver.MissingColumnError
	require.True(t, errors.As(err, &mc))
	assert.Equal(t, types.RoleQuantity, mc.Role)
	assert.Equal(t, "inv.csv", mc.Table)
}

func TestRun_DuplicateKeysTakeDistinctSources(t *testing.T) {
	target := invTable(
		[]string{"500", "5", "2024-01-10", ""},
		[]string{"500", "5", "2024-01-10", ""},
	)
	source := lt24Table(
		[]string{"", "500", "5", "", "2024-01-10", "", "A", "", ""},
		[]string{"", "500", "5", "", "2024-01-10", "", "B", "", ""},
	)

	result, err := newReconciler(t, config.Default(), nil).Run(context.Background(), target, source)
	require.NoError(t, err)

	assert.Equal(t, "A", result.Rows[0].Operator)
	assert.Equal(t, "B", result.Rows[1].Operator)
	assert.Equal(t, 0, result.Summary.SourceRemaining)
	assert.Equal(t, "Unknown", result.Rows[0].MovementType, "bin columns exist but are blank")
}

func TestRun_StyledWorkbookKeepsStoredValues(t *testing.T) {
	// Arrange: "#,##0" quantity and day-first date format on the inventory side.
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"Material", "Menge in ErfassME", "Buchungsdatum"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"4711", -1000, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)}))

	thousands, err := f.NewStyle(&excelize.Style{NumFmt: 3})
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle("Sheet1", "B2", "B2", thousands))
	dayFirst := "dd/mm/yyyy"
	dates, err := f.NewStyle(&excelize.Style{CustomNumFmt: &dayFirst})
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle("Sheet1", "C2", "C2", dates))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	target, err := xlsxparser.ParseReader(&buf, "inv.xlsx", config.Default().Input)
	require.NoError(t, err)

	source := lt24Table(
		[]string{"TO-9", "4711", "1", "", "03.05.2024", "", "EVE", "", ""},
		[]string{"TO-1", "4711", "1000", "", "05.03.2024", "", "ANNA", "", ""},
	)

	// Act
	result, err := newReconciler(t, config.Default(), nil).Run(context.Background(), target, source)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, types.StatusFound, result.Rows[0].Status)
	assert.Equal(t, "TO-1", result.Rows[0].TransferOrder)
	assert.Equal(t, 1, result.Summary.Matched)
}

func TestRun_DateDisabledIgnoresDates(t *testing.T) {
	cfg := config.Default()
	cfg.Matching.DateMatching = config.DateMatchingDisabled

	target := table.New("inv.csv", []string{"Material", "Menge in ErfassME"}, [][]string{{"7", "3"}})
	source := lt24Table([]string{"", "7", "3", "", "1999-01-01", "", "U", "", ""})

	result, err := newReconciler(t, cfg, nil).Run(context.Background(), target, source)
	require.NoError(t, err)
	assert.Equal(t, types.StatusFound, result.Rows[0].Status)
}

func TestRun_FallbackTagsDateMismatch(t *testing.T) {
	cfg := config.Default()
	cfg.Matching.FallbackOnDateMismatch = true

	target := invTable([]string{"7", "3", "2024-06-10", ""})
	source := lt24Table([]string{"", "7", "3", "", "2024-01-01", "", "U", "", ""})

	result, err := newReconciler(t, cfg, nil).Run(context.Background(), target, source)
	require.NoError(t, err)

	assert.Equal(t, types.StatusFoundDateMismatch, result.Rows[0].Status)
	assert.Equal(t, "Matched (date mismatch)", result.Table.Rows[0][8])
	assert.Equal(t, 1, result.Summary.DateMismatch)
	assert.Equal(t, 1, result.Summary.Matched)
}

func TestRun_SourceDateFallsBackToCreationDate(t *testing.T) {
	target := invTable([]string{"7", "3", "2024-06-10", ""})
	source := table.New("lt24.csv",
		[]string{"Material", "Source target qty", "Confirmation date", "Creation date", "User"},
		[][]string{{"7", "3", "", "2024-06-10", "U"}})

	result, err := newReconciler(t, config.Default(), nil).Run(context.Background(), target, source)
	require.NoError(t, err)
	assert.Equal(t, types.StatusFound, result.Rows[0].Status)
}

func TestRun_StrictQuantity(t *testing.T) {
	target := invTable([]string{"7", "n/a", "2024-06-10", ""})
	newSource := func() *table.Table {
		return lt24Table([]string{"", "7", "", "", "2024-06-10", "", "U", "", ""})
	}

	lenient, err := newReconciler(t, config.Default(), nil).Run(context.Background(), target, newSource())
	require.NoError(t, err)
	assert.Equal(t, types.StatusFound, lenient.Rows[0].Status, "zero sentinels match each other")
	assert.Equal(t, 1, lenient.Summary.CellWarnings["target/quantity"])
	assert.Equal(t, 1, lenient.Summary.CellWarnings["source/quantity"])

	var unparsable []*validation.ValidationError
	for _, e := range lenient.Validation.Errors {
		if errors.Is(e, normalize.ErrUnparsable) {
			unparsable = append(unparsable, e)
		}
	}
	require.Len(t, unparsable, 1, "only the target cell holds text")
	assert.Equal(t, types.TargetTable, unparsable[0].Kind)
	assert.Equal(t, "n/a", unparsable[0].Value)

	cfg := config.Default()
	cfg.Matching.StrictQuantity = true
	strict, err := newReconciler(t, cfg, nil).Run(context.Background(), target, newSource())
	require.NoError(t, err)
	assert.Equal(t, types.StatusNotFound, strict.Rows[0].Status)
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	target := invTable([]string{"7", "3", "2024-06-10", ""})
	source := lt24Table([]string{"", "7", "3", "", "2024-06-10", "", "U", "", ""})

	result, err := newReconciler(t, config.Default(), nil).Run(ctx, target, source)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_ProgressIsThrottled(t *testing.T) {
	cfg := config.Default()
	cfg.Matching.ProgressEvery = 10

	var rows, srcRows [][]string
	for i := 0; i < 25; i++ {
		rows = append(rows, []string{"1", "1", "2024-01-01", ""})
	}
	srcRows = append(srcRows, []string{"", "1", "1", "", "2024-01-01", "", "U", "", ""})

	obs := &recordingObserver{}
	_, err := newReconciler(t, cfg, obs).Run(context.Background(), invTable(rows...), lt24Table(srcRows...))
	require.NoError(t, err)

	// rows 1, 11 and 21, then the final 1.0
	assert.Equal(t, []float64{1.0 / 25, 11.0 / 25, 21.0 / 25, 1}, obs.progress)
}

func TestInspect(t *testing.T) {
	target := invTable([]string{"00123", "-10,5", "05.03.2024", ""})
	source := table.New("lt24.csv", []string{"Material", "User"}, [][]string{{"123.0", "ANNA"}})

	ins := newReconciler(t, config.Default(), nil).Inspect(target, source)

	require.Error(t, ins.Err)
	assert.False(t, ins.Validation.IsValid)
	assert.Equal(t, []KeyPreview{{Row: 1, Material: "00123", Quantity: 10.5, Date: "2024-03-05"}}, ins.TargetPreview)
	assert.Equal(t, "123", ins.SourcePreview[0].Material)
	assert.Equal(t, []string{"Material"}, ins.SourceColumns.Columns[types.RoleMaterial])
}

func TestNew_RejectsUnknownOverrideRole(t *testing.T) {
	cfg := config.Default()
	cfg.Columns.Target = map[string]config.RolePattern{"colour": {Exact: []string{"x"}}}

	_, err := New(cfg, nil, nil)
	assert.Error(t, err)
}
