package domain

// AnonUserID is used when a request carries no user identifier.
const AnonUserID = "anon_user"

// MenopauseStage is the inferred clinical stage
type MenopauseStage string

const (
	StagePre  MenopauseStage = "pre-menopause"
	StagePeri MenopauseStage = "perimenopause"
	StagePost MenopauseStage = "post-menopause"
)

// SleepQuality is the self-reported sleep bucket
type SleepQuality string

const (
	SleepPoor SleepQuality = "Poor"
	SleepFair SleepQuality = "Fair"
	SleepGood SleepQuality = "Good"
)

// Cluster determines which scheduling bucket a supplement lands in
type Cluster string

const (
	ClusterCore      Cluster = "Core"
	ClusterEnergy    Cluster = "Energy"
	ClusterHormone   Cluster = "Hormone"
	ClusterStress    Cluster = "Stress"
	ClusterGut       Cluster = "Gut"
	ClusterSkin      Cluster = "Skin"
	ClusterMetabolic Cluster = "Metabolic"
	ClusterMovement  Cluster = "Movement"
	ClusterSleep     Cluster = "Sleep"
)

// RiskFlag is a typed safety signal produced by screening and consumed
// by later rule stages. Warning text shown to the user is derived from
// these flags, never the other way around.
type RiskFlag string

const (
	RiskSsriConflict    RiskFlag = "ssri_conflict"
	RiskThyroidConflict RiskFlag = "thyroid_conflict"
	RiskLiver           RiskFlag = "liver_risk"
	RiskEstrogen        RiskFlag = "estrogen_risk"
	RiskIronUnconfirmed RiskFlag = "iron_unconfirmed"
)

// Lifestyle holds the behavioral signals used by refinement rules
type Lifestyle struct {
	SleepQuality SleepQuality `json:"sleep_quality"`
	StressLevel  int          `json:"stress_level"`
}

// IntakeRecord is the structured form of a user's intake, either
// produced by the normalizer or supplied directly by the caller
type IntakeRecord struct {
	UserID         string         `json:"user_id"`
	Symptoms       []string       `json:"symptoms"`
	Medications    []string       `json:"medications"`
	Conditions     []string       `json:"conditions"`
	MenopauseStage MenopauseStage `json:"menopause_stage"`
	Lifestyle      Lifestyle      `json:"lifestyle"`
	DietNotes      string         `json:"diet_notes,omitempty"`
	Movement       string         `json:"movement,omitempty"`
	Goals          []string       `json:"goals"`
	TestData       string         `json:"test_data,omitempty"`
}

// StackEntry is one supplement in the final protocol
type StackEntry struct {
	Supplement     string  `json:"supplement"`
	Rationale      string  `json:"rationale"`
	Dose           string  `json:"dose"`
	Cluster        Cluster `json:"cluster"`
	ExampleProduct string  `json:"example_product"`
	Link           string  `json:"link"`
}

// Protocol is the engine's final output. DBSaveStatus, UserID and
// DashboardURL are attached after the persistence attempt, so the
// persisted copy omits them.
type Protocol struct {
	FullStack        []StackEntry `json:"full_stack"`
	RationaleSummary string       `json:"rationale_summary"`
	DailyPlan        []string     `json:"daily_plan"`
	BenefitTimeline  string       `json:"expected_benefit_timeline"`
	Monitored        []string     `json:"what_will_be_monitored"`
	AdjustmentsPlan  string       `json:"adjustments_plan"`
	Warnings         []string     `json:"warnings"`
	DBSaveStatus     string       `json:"db_save_status,omitempty"`
	UserID           string       `json:"user_id,omitempty"`
	DashboardURL     string       `json:"dashboard_url,omitempty"`
}

// Persistence status values
const (
	SaveSuccess = "SUCCESS"
	SaveFailed  = "FAILED"
)

// RawInputs is the echo of the structured intake persisted alongside
// each protocol
type RawInputs struct {
	UserID         string         `json:"user_id"`
	Symptoms       []string       `json:"symptoms"`
	Medications    []string       `json:"medications"`
	Conditions     []string       `json:"conditions"`
	MenopauseStage MenopauseStage `json:"menopause_stage"`
	Lifestyle      Lifestyle      `json:"lifestyle"`
	Goals          []string       `json:"goals"`
}
