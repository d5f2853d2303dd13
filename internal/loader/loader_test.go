package loader

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loyaltycli/internal/charset"
	apperrors "loyaltycli/internal/errors"
	"loyaltycli/internal/exporter"
	"loyaltycli/internal/infrastructure"
	"loyaltycli/internal/schema"
	"loyaltycli/internal/shared/testutil"
	"loyaltycli/internal/table"
	"loyaltycli/pkg/contracts/domain"
)

const rosterCSV = `ID_UNICO_ANDREA,PERFIL,NIVEL,JOYAS_TOTALES_GANADAS,JOYAS_CANJEADOS,FECHA_DE_NACIMIENTO,ULTIMO_INGRESO_APP,NOMBRE
u1,Minorista,1,0,0,1960-05-01,2024-01-02 10:00:00,JOSÉ
u2,Mayorista,2,50,10,1990-01-01,null,ANA
u3,Minorista,1,,5,NO UPDATE,,PEÑA
`

const goalsCSV = `ID_UNICO_ANDREA,PERFIL,NIVEL,MES,CUOTA_OBJETIVO,MONTO_DE_VENTA_NETA_ACUMULADA_AL_CIERRE_DE_MES,PORCENTAJE_DE_CUMPLIMIENTO
u1,Minorista,1,3,100,87,87%
u2,Minorista,1,3,100,105,105%
u9,Mayorista,2,3,200,,
`

const shippingCSV = `ID_UNICO_ANDREA,PERFIL,PRECIO PRODUCTO,PUNTOS,FECHA_DE_CANJE,FECHA DE RECEPCIÓN,COLONIA
u1,Minorista,$19.99,200,2024-03-01,NA,CENTRO
u2,Mayorista,$5,s/n,2024-03-02 08:30:00,2024-03-09,
`

func writeFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

func latin1(t *testing.T, s string) []byte {
	t.Helper()
	out, err := charset.Latin1.Encode([]byte(s))
	require.NoError(t, err)
	return out
}

func column(t *testing.T, tbl *table.Table, name string) []any {
	t.Helper()
	c, err := tbl.Lookup(name)
	require.NoError(t, err)
	return c.Values
}

func TestNewRoster_RequiresPolicies(t *testing.T) {
	_, err := NewRoster(RosterOptions{Access: AccessNullMeansNoAccess}, nil)
	assert.True(t, errors.Is(err, apperrors.ErrConfig))

	_, err = NewRoster(RosterOptions{Activity: ActivityByValue}, nil)
	assert.True(t, errors.Is(err, apperrors.ErrConfig))
}

func TestRoster_Load(t *testing.T) {
	path := writeFile(t, domain.DefaultRosterFile, latin1(t, rosterCSV))

	tests := []struct {
		name     string
		opts     RosterOptions
		winners  []any
		accessed []any
	}{
		{
			name:     "by value, null means no access",
			opts:     RosterOptions{Activity: ActivityByValue, Access: AccessNullMeansNoAccess},
			winners:  []any{domain.LabelNotWinner, domain.LabelWinner, domain.LabelWinner},
			accessed: []any{domain.LabelAccessed, domain.LabelNotAccessed, domain.LabelNotAccessed},
		},
		{
			name:     "profile override, null means access",
			opts:     RosterOptions{Activity: ActivityProfileOverride, Access: AccessNullMeansAccess},
			winners:  []any{domain.LabelNotWinner, domain.LabelNotWinner, domain.LabelWinner},
			accessed: []any{domain.LabelAccessed, domain.LabelAccessed, domain.LabelAccessed},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := NewRoster(tt.opts, nil)
			require.NoError(t, err)

			tbl, err := l.Load(context.Background(), path)
			require.NoError(t, err)
			require.Equal(t, 3, tbl.Len())

			assert.Equal(t, tt.winners, column(t, tbl, domain.ColWinner))
			assert.Equal(t, tt.accessed, column(t, tbl, domain.ColHasAccess))
			assert.Equal(t,
				[]any{domain.LabelNotRedeemed, domain.LabelRedeemed, domain.LabelRedeemed},
				column(t, tbl, domain.ColHasRedemption))
			assert.Equal(t,
				[]any{domain.LabelBabyBoomer, domain.LabelMillennial, nil},
				column(t, tbl, domain.ColGeneration))

			gen, _ := tbl.Column(domain.ColGeneration)
			assert.Equal(t, table.KindCategory, gen.Kind)
			assert.Equal(t, []any{"JOSÉ", "ANA", "PEÑA"}, column(t, tbl, domain.ColName))
			assert.Equal(t, []any{0.0, 50.0, nil}, column(t, tbl, domain.ColTotalEarned))
		})
	}
}

func TestRoster_WholesalerIsNeverWinnerUnderOverride(t *testing.T) {
	csv := "ID_UNICO_ANDREA,PERFIL,JOYAS_TOTALES_GANADAS,JOYAS_CANJEADOS,FECHA_DE_NACIMIENTO,ULTIMO_INGRESO_APP\n" +
		"w1,Mayorista,1200,0,1980-02-02,2024-01-01\n"
	path := writeFile(t, "roster.csv", []byte(csv))

	byValue, err := NewRoster(RosterOptions{Activity: ActivityByValue, Access: AccessNullMeansNoAccess}, nil)
	require.NoError(t, err)
	tbl, err := byValue.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []any{domain.LabelWinner}, column(t, tbl, domain.ColWinner))

	override, err := NewRoster(RosterOptions{Activity: ActivityProfileOverride, Access: AccessNullMeansNoAccess}, nil)
	require.NoError(t, err)
	tbl, err = override.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []any{domain.LabelNotWinner}, column(t, tbl, domain.ColWinner))
}

func TestGenerationBins_AreRightClosed(t *testing.T) {
	label, ok := generationOf(time.Date(1964, 12, 31, 0, 0, 0, 0, time.UTC))
	assert.True(t, ok)
	assert.Equal(t, domain.LabelBabyBoomer, label)

	label, ok = generationOf(time.Date(1965, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.True(t, ok)
	assert.Equal(t, domain.LabelGenerationX, label)

	_, ok = generationOf(time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.False(t, ok, "lower edge of the first bin is open")

	_, ok = generationOf(time.Date(2051, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.False(t, ok)
}

func TestGoals_Load(t *testing.T) {
	path := writeFile(t, domain.DefaultGoalsFile, latin1(t, goalsCSV))

	roster := table.MustNew(table.NewColumn(domain.ColUserKey, table.KindText, []any{"u1", "u2", "u5"}))
	tbl, err := NewGoals(GoalsOptions{Roster: roster}, nil).Load(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, []any{87.0, 105.0, nil}, column(t, tbl, domain.ColQuotaPercent))
	assert.Equal(t,
		[]any{domain.LabelGoalNotMet, domain.LabelGoalMet, domain.LabelGoalNotMet},
		column(t, tbl, domain.ColGoalMet))
	assert.Equal(t, []any{-13.0, 5.0, nil}, column(t, tbl, domain.ColGrowthOverQuota))
	assert.Equal(t, []any{true, true, false}, column(t, tbl, domain.ColParticipates))
}

func TestLoad_LogsSuccessfulValidation(t *testing.T) {
	logs := testutil.NewLogCapture(t)
	path := writeFile(t, domain.DefaultGoalsFile, latin1(t, goalsCSV))

	caller := infrastructure.WithComponent(logs.Logger(), "pipeline")
	_, err := NewGoals(GoalsOptions{}, caller).Load(context.Background(), path)
	require.NoError(t, err)

	r, ok := logs.Find(schema.SuccessMessage)
	require.True(t, ok)
	assert.Equal(t, slog.LevelInfo, r.Level)
	assert.EqualValues(t, 3, r.Attrs["rows"])

	decoded, ok := logs.Find("decoded export")
	require.True(t, ok)
	assert.Equal(t, string(charset.Latin1), decoded.Attrs["encoding"])
	assert.Equal(t, "loader", decoded.Attrs["component"], "the loader's component replaces the caller's")
}

func TestGoals_WithoutRosterHasNoMembership(t *testing.T) {
	path := writeFile(t, domain.DefaultGoalsFile, []byte(goalsCSV))
	tbl, err := NewGoals(GoalsOptions{}, nil).Load(context.Background(), path)
	require.NoError(t, err)
	assert.False(t, tbl.Has(domain.ColParticipates))
}

func TestShipping_Load(t *testing.T) {
	path := writeFile(t, domain.DefaultShippingFile, []byte(shippingCSV))

	tbl, err := NewShipping(nil, nil).Load(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, []any{19.99, 5.0}, column(t, tbl, domain.ColProductPrice))
	assert.Equal(t, []any{200.0, nil}, column(t, tbl, domain.ColPoints))
	assert.Equal(t, []any{
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 2, 8, 30, 0, 0, time.UTC),
	}, column(t, tbl, domain.ColRedemptionDate))
	assert.Equal(t, []any{nil, time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)}, column(t, tbl, domain.ColReceivedDate))

	received, _ := tbl.Column(domain.ColReceivedDate)
	assert.Equal(t, table.KindDateTime, received.Kind)
	assert.Equal(t, []any{"CENTRO", nil}, column(t, tbl, "COLONIA"))
}

func TestShipping_UndecodableIsDecodeError(t *testing.T) {
	path := writeFile(t, domain.DefaultShippingFile, latin1(t, shippingCSV))

	_, err := NewShipping([]charset.Encoding{charset.UTF8}, nil).Load(context.Background(), path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrDecode))

	tbl, err := NewShipping([]charset.Encoding{charset.UTF8, charset.Latin1}, nil).Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.Len())
}

func TestLoad_MalformedValueIsParsingError(t *testing.T) {
	tests := []struct {
		name string
		csv  string
		col  string
	}{
		{"float", "ID_UNICO_ANDREA,NIVEL\nu1,uno\n", domain.ColLevel},
		{"date", "ID_UNICO_ANDREA,FECHA_DE_CANJE\nu1,ayer\n", domain.ColRedemptionDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := ShippingSource(nil, nil)
			src.Floats = append([]string{domain.ColLevel}, src.Floats...)
			l := newLoader(src, nil, nil)

			_, err := l.LoadBytes(context.Background(), []byte(tt.csv))
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrParsing))

			var appErr *apperrors.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, tt.col, appErr.Context["column"])
			assert.Equal(t, 2, appErr.Context["line"])
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := NewShipping(nil, nil).Load(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestRoster_RoundTripThroughExporter(t *testing.T) {
	path := writeFile(t, domain.DefaultRosterFile, latin1(t, rosterCSV))
	l, err := NewRoster(RosterOptions{Activity: ActivityByValue, Access: AccessNullMeansNoAccess}, nil)
	require.NoError(t, err)

	first, err := l.Load(context.Background(), path)
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "RGU.csv")
	_, err = exporter.NewCSVWriter(nil, nil).WriteTable(out, first, charset.Latin1, false)
	require.NoError(t, err)

	second, err := l.Load(context.Background(), out)
	require.NoError(t, err)

	assert.Equal(t, first.Types(), second.Types())
	for _, name := range first.Names() {
		assert.Equal(t, column(t, first, name), column(t, second, name), name)
	}
}
