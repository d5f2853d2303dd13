package domain

// Shipping list column names used outside the loader.
const (
	ColShippingUserKey   = "ID_UNICO_ANDREA"
	ColShippingProfile   = "PERFIL"
	ColProductPrice      = "PRECIO PRODUCTO"
	ColRedemptionDate    = "FECHA_DE_CANJE"
	ColCutoffDate        = "FECHA DE CORTE"
	ColEstimatedDelivery = "FECHA ESTIMADA DE ENTREGA"
	ColReceivedDate      = "FECHA DE RECEPCIÓN"
	ColPoints            = "PUNTOS"
	ColQuantity          = "CANTIDAD"
	DefaultShippingFile  = "shipping_list.csv"
)

// ShippingTextColumns are read as text.
var ShippingTextColumns = []string{
	"ID_UNICO_CANJE",
	"PEDIDO EREWARD",
	"EREWARD CANJE ID",
	"NOMBRE (S)",
	"APELLIDO PATERNO",
	"APELLIDO MATERNO",
	ColShippingUserKey,
	ColShippingProfile,
	"CELULAR CANJE",
	"CORREO CANJE",
	"CORREO REGISTRADO",
	"CATEGORIA",
	"CLASIFICACION DE PRODUCTO",
	"NOMBRE CORTO",
	"SKU",
	"CODIGO PMR",
	"MARCA",
	"TELEFONO_DE_RECARGA",
	"COMPAÑÍA RECARGA",
	"PAQUETERIA",
	"LIGA_POD",
	"CALLE",
	"REFERENCIAS",
	"COLONIA",
	"MUNICIPIO",
	"ESTADO",
	"RFC MONEDERO",
	"NOMBRE COMPLETO MONEDERO",
	"LUGAR DE CANJE",
	"GUIA",
	"ESTATUS DE ENTREGA",
	"ID_ARTICULO_SAP",
	"QUIEN RECIBIO",
	"NÚMERO EXTERIOR",
	"NÚMERO INTERIOR",
}

// ShippingFloatColumns are read as float64. PRECIO PRODUCTO carries a "$"
// prefix and is handled as a decorated column.
var ShippingFloatColumns = []string{
	"PEDIDO",
	ColPoints,
	ColQuantity,
	"CODIGO POSTAL",
	"PRECIO LOGISTICA",
	"FEE",
	"PRECIO VENTA INTEGRADO",
	"PRECIO DE VENTA MAS AJUSTE",
	"MONTO DE DISPERSION",
	"COMISION PROVEEDOR",
	"PRECIO PLASTICO",
	ColProductPrice,
}

// ShippingDateColumns are parsed to timestamps.
var ShippingDateColumns = []string{
	ColRedemptionDate,
	ColCutoffDate,
	ColEstimatedDelivery,
	ColReceivedDate,
}

// ShippingMissingTokens are read as absent in addition to the defaults.
var ShippingMissingTokens = []string{"", "NA", "s/n"}
