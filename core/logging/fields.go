package logging

// Canonical field names shared by every component.
const (
	FieldService   = "service"
	FieldComponent = "component"
	FieldRunID     = "run_id"
	FieldStationID = "station_id"
	FieldProgramID = "program_id"
	FieldArtist    = "artist"
	FieldURL       = "url"
	FieldDate      = "date"
)
