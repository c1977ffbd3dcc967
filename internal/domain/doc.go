// Package domain models gridded GFS forecast data on its way to a columnar
// table.
//
// # Data Source
//
// Source data is the NOAA Global Forecast System (GFS) 0.25° global
// latitude/longitude grid, published as GRIB2 files per model run. A run is
// identified by its date and cycle (the model's nominal UTC start hour: 00,
// 06, 12, or 18), and each file within a run by its forecast hour (hours
// ahead of the cycle time, 0 to 384). Files are mirrored at
// https://noaa-gfs-bdp-pds.s3.amazonaws.com and served with per-record
// subsetting by the NOMADS filter endpoint.
//
// # Grid Conventions
//
// GFS longitudes run [0, 360) eastward from the prime meridian. Downstream
// consumers expect the [-180, 180) convention, so every grid is normalized
// with
//
//	lon' = ((lon + 180) mod 360) - 180
//
// and the longitude axis re-sorted ascending, with each variable layer
// reordered to match. Normalization is idempotent. Latitudes are carried in
// source order (GFS scans north to south).
//
// Layers are stored row-major over (latitude, longitude):
// layer[i*len(Lons)+j] holds the value at (Lats[i], Lons[j]).
//
// # Variables
//
// The converter extracts a fixed set of ten surface records per file. Layer
// names follow the short names the ECMWF GRIB tables assign to these
// products, and are renamed to unit-qualified output columns when
// tabularized:
//
//	t2m   → temperature_k         2 m temperature, Kelvin
//	d2m   → dewpoint_k            2 m dewpoint, Kelvin
//	r2    → relative_humidity     2 m relative humidity, percent
//	u10   → wind_u_ms             10 m wind u-component, m/s
//	v10   → wind_v_ms             10 m wind v-component, m/s
//	gust  → wind_gust_ms          surface gust, m/s
//	sp    → surface_pressure_pa   surface pressure, Pa
//	tcc   → cloud_cover           total cloud cover, percent
//	prate → precip_rate_kg_m2_s   precipitation rate, kg/m²/s
//	vis   → visibility_m          surface visibility, m
//
// A variable missing from the source file simply never appears in the table;
// renaming is a no-op for absent layers and no placeholder column is
// emitted.
//
// # Spatial Indexing
//
// Every output row carries an H3 cell identifier computed from its
// (latitude, longitude) at a caller-chosen resolution (0 to 15). The identifier
// is a pure function of the coordinate and resolution, so identical grid
// points always land in the same cell across runs.
//
// # Time Arithmetic
//
// For a request (date, cycle, forecast_hour):
//
//	run_time      = date + cycle hours
//	forecast_time = run_time + forecast_hour hours
//
// Both are attached to every output row, together with the integer forecast
// hour, so rows from different runs can be mixed in one store and compared
// by lead time.
package domain
