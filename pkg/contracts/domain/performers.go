package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Leaderboard column names.
const (
	ColTotalSales     = "VENTA_TOTAL"
	ColMonthsMet      = "MESES_CUMPLIDOS"
	ColAveragePercent = "PORCENTAJE_PROMEDIO"
	DefaultTopN       = 10
)

// LeaderboardBaseColumns are kept from every monthly export before the
// sales column is renamed.
var LeaderboardBaseColumns = []string{
	ColUserKey,
	ColName,
	ColPaternalSurname,
	ColMaternalSurname,
	ColLevel,
	ColQuota,
}

// MonthLabel renders a month number the way it appears in column, sheet and
// file names ("1", "12", "2.5" for odd exports).
func MonthLabel(month float64) string {
	return strconv.FormatFloat(month, 'f', -1, 64)
}

// MonthlySalesColumn names the sales column of one month.
func MonthlySalesColumn(month float64) string {
	return "VENTA_MES_" + MonthLabel(month)
}

// MonthlyQuotaMetColumn names the quota-met flag of one month.
func MonthlyQuotaMetColumn(month float64) string {
	return "CUMPLIO_MES_" + MonthLabel(month)
}

// LevelSheetName names the workbook sheet of one performance tier.
func LevelSheetName(level float64) string {
	return "Nivel " + MonthLabel(level)
}

// LeaderboardFileName encodes the processed months in the workbook name.
func LeaderboardFileName(months []float64) string {
	labels := make([]string, len(months))
	for i, m := range months {
		labels[i] = MonthLabel(m)
	}
	return fmt.Sprintf("top_performers_meses_%s.xlsx", strings.Join(labels, "_"))
}
