package domain

import "time"

// Roster ("reporte general de usuarios") column names.
const (
	ColUserKey          = "ID_UNICO_ANDREA"
	ColName             = "NOMBRE"
	ColPaternalSurname  = "APELLIDO_PATERNO"
	ColMaternalSurname  = "APELLIDO_MATERNO"
	ColProfile          = "PERFIL"
	ColLevel            = "NIVEL"
	ColTotalEarned      = "JOYAS_TOTALES_GANADAS"
	ColRedeemed         = "JOYAS_CANJEADOS"
	ColAvailable        = "JOYAS_DISPONIBLES"
	ColBirthDate        = "FECHA_DE_NACIMIENTO"
	ColLastAccess       = "ULTIMO_INGRESO_APP"
	ColDataCompletedAt  = "FECHA_COMPLEMENTO_DATOS"
	ColUserCreatedAt    = "FECHA_CREACIÓN_DE_USUARIO"
	ColRosterUserID     = "USER_ID"
	ColRosterEmail      = "CORREO_ELECTRONICO"
	ColRosterCellphone  = "CELULAR"
	ColRosterState      = "ESTADO"
	ColRosterSex        = "SEXO"
	ColRosterStatus     = "ESTATUS"
	ColRosterTaxID      = "RFC"
	ColWinner           = "Ganadoras"
	ColHasRedemption    = "Con canje"
	ColHasAccess        = "Con ingreso"
	ColGeneration       = "generación"
	DefaultRosterFile   = "reporte_general_de_usuarios.csv"
	DefaultWholesaler   = "Mayorista"
	DefaultRetailer     = "Minorista"
	LabelWinner         = "Ganadora"
	LabelNotWinner      = "No ganadora"
	LabelRedeemed       = "Con canje"
	LabelNotRedeemed    = "Sin canje"
	LabelAccessed       = "Con ingreso"
	LabelNotAccessed    = "Sin ingreso"
	LabelBabyBoomer     = "Baby boomer"
	LabelGenerationX    = "Generacion X"
	LabelMillennial     = "Millenial"
	LabelGenerationZ    = "Z y otra"
)

// RosterTextColumns are read as text.
var RosterTextColumns = []string{
	ColUserKey,
	ColName,
	ColPaternalSurname,
	ColMaternalSurname,
	ColProfile,
	ColRosterEmail,
	ColRosterCellphone,
	ColRosterState,
	ColRosterSex,
	ColRosterStatus,
	ColRosterTaxID,
}

// RosterFloatColumns are read as float64.
var RosterFloatColumns = []string{
	ColRosterUserID,
	ColLevel,
	ColTotalEarned,
	ColRedeemed,
	ColAvailable,
}

// RosterDateColumns are parsed to timestamps.
var RosterDateColumns = []string{
	ColBirthDate,
	ColDataCompletedAt,
	ColLastAccess,
	ColUserCreatedAt,
}

// RosterMissingTokens are read as absent in addition to the defaults.
var RosterMissingTokens = []string{"", "null", "NO UPDATE", "0000-00-00"}

// GenerationBin is one right-closed birth-date interval (From, To].
type GenerationBin struct {
	From  time.Time
	To    time.Time
	Label string
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// GenerationBins are the age cohorts. Dates outside every bin are unclassified.
var GenerationBins = []GenerationBin{
	{From: day(1900, time.January, 1), To: day(1964, time.December, 31), Label: LabelBabyBoomer},
	{From: day(1964, time.December, 31), To: day(1976, time.December, 31), Label: LabelGenerationX},
	{From: day(1976, time.December, 31), To: day(1995, time.December, 31), Label: LabelMillennial},
	{From: day(1995, time.December, 31), To: day(2050, time.December, 31), Label: LabelGenerationZ},
}
