package binned

var (
	WavelengthFromName = wavelengthFromName
	ParseTime          = parseTime
)
