package models

// DefaultDepartments is the master list seeded into an empty store.
var DefaultDepartments = []string{
	"Arbejdsmarkedsafdelingen",
	"Børne- og Familieafdelingen",
	"Dagtilbudsafdelingen",
	"Erhvervsafdelingen og Ledelsessekretariat",
	"Fælles",
	"IT-afdelingen",
	"Kultur- og Fritidsafdelingen",
	"Skoleafdelingen",
	"Socialafdelingen",
	"Sundheds- og Ældreafdelingen",
	"Teknik- og Miljøafdelingen",
	"Økonomi- og Personaleafdelingen",
}

// SystemActor is recorded as creator of seeded rows.
const SystemActor = "SYSTEM"
