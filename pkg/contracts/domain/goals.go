package domain

// Goals/results ("reporte de metas y resultados") column names.
const (
	ColEnabled          = "HABILITADO"
	ColActivated        = "ACTIVADO"
	ColMonth            = "MES"
	ColYear             = "AÑO"
	ColQuota            = "CUOTA_OBJETIVO"
	ColAccumulatedSales = "MONTO_DE_VENTA_NETA_ACUMULADA_AL_CIERRE_DE_MES"
	ColPurchaseGems     = "JOYAS_TOTALES_GANADAS_POR_COMPRAS"
	ColQuotaPercent     = "PORCENTAJE_DE_CUMPLIMIENTO"
	ColGoalMet          = "Logro meta"
	ColGrowthOverQuota  = "Crecimiento sobre la renta"
	ColParticipates     = "Participa"
	DefaultGoalsFile    = "reporte_metas_y_resultados.csv"
	LabelGoalMet        = "Cumplió"
	LabelGoalNotMet     = "No cumplió"
	// QuotaAchievedThreshold is the percentage at which a goal counts as met.
	QuotaAchievedThreshold = 100.0
)

// GoalsTextColumns are read as text.
var GoalsTextColumns = []string{
	ColUserKey,
	ColName,
	ColPaternalSurname,
	ColMaternalSurname,
	ColProfile,
}

// GoalsFloatColumns are read as float64. The quota percentage arrives as
// "87%" and has its suffix stripped first.
var GoalsFloatColumns = []string{
	ColLevel,
	ColEnabled,
	ColActivated,
	ColMonth,
	ColYear,
	ColQuota,
	ColAccumulatedSales,
	ColPurchaseGems,
	ColQuotaPercent,
}
