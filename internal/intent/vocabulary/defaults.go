package vocabulary

// DefaultDoctors are the doctors present in the seeded DoctorProcedures table.
var DefaultDoctors = []string{
	"Sarah Johnson",
	"Michael Chen",
	"Emily Rodriguez",
	"James Wilson",
	"Lisa Thompson",
	"David Kim",
	"Rachel Green",
	"Mark Davis",
	"Jennifer Lee",
	"Robert Brown",
	"Amanda Martinez",
	"Christopher Taylor",
	"Michelle White",
	"Andrew Garcia",
	"Nicole Anderson",
	"Kevin Thomas",
}

var DefaultProcedures = []Procedure{
	{Code: "CONS001", Name: "Initial Consultation", Aliases: []string{"consultation", "initial visit"}},
	{Code: "CONS002", Name: "Follow-up Consultation", Aliases: []string{"follow-up", "follow up", "followup"}},
	{Code: "XRAY001", Name: "Chest X-Ray", Aliases: []string{"chest xray", "x-ray", "xray"}},
	{Code: "XRAY002", Name: "Abdominal X-Ray", Aliases: []string{"abdominal xray"}},
	{Code: "LAB001", Name: "Complete Blood Count", Aliases: []string{"blood count", "cbc", "blood test"}},
	{Code: "LAB002", Name: "Lipid Panel", Aliases: []string{"cholesterol test", "lipid test"}},
	{Code: "LAB003", Name: "Thyroid Function Test", Aliases: []string{"thyroid test", "tft"}},
	{Code: "SURG001", Name: "Minor Surgery - Lesion Removal", Aliases: []string{"lesion removal", "minor surgery"}},
	{Code: "SURG002", Name: "Arthroscopic Knee Surgery", Aliases: []string{"knee surgery", "arthroscopy"}},
	{Code: "CARD001", Name: "Electrocardiogram (ECG)", Aliases: []string{"electrocardiogram", "ecg", "ekg"}},
	{Code: "CARD002", Name: "Echocardiogram", Aliases: []string{"echo", "heart ultrasound"}},
	{Code: "ENDO001", Name: "Colonoscopy"},
	{Code: "ENDO002", Name: "Upper Endoscopy", Aliases: []string{"endoscopy"}},
	{Code: "PHYS001", Name: "Physical Therapy Session", Aliases: []string{"physical therapy", "physio"}},
	{Code: "PHYS002", Name: "Occupational Therapy"},
	{Code: "RAD001", Name: "MRI Scan - Brain", Aliases: []string{"brain mri", "mri"}},
	{Code: "RAD002", Name: "CT Scan - Abdomen", Aliases: []string{"ct scan", "cat scan"}},
	{Code: "DERM001", Name: "Skin Biopsy", Aliases: []string{"biopsy"}},
	{Code: "DERM002", Name: "Mole Removal"},
	{Code: "VACC001", Name: "Annual Flu Vaccination", Aliases: []string{"flu shot", "flu vaccine", "vaccination"}},
}

// Default returns the vocabulary for the seeded dataset.
func Default() *Vocabulary {
	return New(DefaultDoctors, DefaultProcedures)
}
