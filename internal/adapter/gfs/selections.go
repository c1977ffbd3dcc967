// Package gfs fetches GFS GRIB2 records from the NOAA archive and decodes
// them into gridded datasets.
package gfs

import (
	"github.com/nilsmagnus/grib/griblib"
)

// selection names one GRIB2 record to extract: the parameter and level
// strings as they appear in the wgrib2-style .idx inventory, and the
// internal layer name it becomes.
type selection struct {
	Param string
	Level string
	Layer string
}

// selections is the fixed set of surface records extracted from each GFS
// pgrb2 file. Records absent from a file's inventory are skipped, not
// zero-filled.
var selections = []selection{
	{Param: "TMP", Level: "2 m above ground", Layer: "t2m"},
	{Param: "DPT", Level: "2 m above ground", Layer: "d2m"},
	{Param: "RH", Level: "2 m above ground", Layer: "r2"},
	{Param: "UGRD", Level: "10 m above ground", Layer: "u10"},
	{Param: "VGRD", Level: "10 m above ground", Layer: "v10"},
	{Param: "GUST", Level: "surface", Layer: "gust"},
	{Param: "PRES", Level: "surface", Layer: "sp"},
	{Param: "TCDC", Level: "entire atmosphere", Layer: "tcc"},
	{Param: "PRATE", Level: "surface", Layer: "prate"},
	{Param: "VIS", Level: "surface", Layer: "vis"},
}

// productKey identifies a GRIB2 product within discipline 0 (meteorological)
// by parameter category, parameter number, first fixed surface type, and
// surface value.
type productKey struct {
	Category uint8
	Number   uint8
	Surface  uint8
	Value    uint32
}

// productLayers maps GRIB2 product identification to internal layer names,
// used when classifying whole local files where no inventory is available.
// Surface types: 1 = ground, 103 = height above ground (m),
// 200 = entire atmosphere.
var productLayers = map[productKey]string{
	{Category: 0, Number: 0, Surface: 103, Value: 2}:   "t2m",
	{Category: 0, Number: 6, Surface: 103, Value: 2}:   "d2m",
	{Category: 1, Number: 1, Surface: 103, Value: 2}:   "r2",
	{Category: 2, Number: 2, Surface: 103, Value: 10}:  "u10",
	{Category: 2, Number: 3, Surface: 103, Value: 10}:  "v10",
	{Category: 2, Number: 22, Surface: 1, Value: 0}:    "gust",
	{Category: 3, Number: 0, Surface: 1, Value: 0}:     "sp",
	{Category: 6, Number: 1, Surface: 200, Value: 0}:   "tcc",
	{Category: 1, Number: 7, Surface: 1, Value: 0}:     "prate",
	{Category: 19, Number: 0, Surface: 1, Value: 0}:    "vis",
}

// classifyMessage matches a decoded GRIB2 message against the converter's
// variable set. Returns false for products outside the set.
func classifyMessage(msg *griblib.Message) (string, bool) {
	if msg.Section0.Discipline != 0 {
		return "", false
	}
	pdt := msg.Section4.ProductDefinitionTemplate
	key := productKey{
		Category: uint8(pdt.ParameterCategory),
		Number:   uint8(pdt.ParameterNumber),
		Surface:  uint8(pdt.FirstSurface.Type),
		Value:    uint32(pdt.FirstSurface.Value),
	}
	layer, ok := productLayers[key]
	return layer, ok
}
