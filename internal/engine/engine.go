// Package engine implements the deterministic rule pipeline that turns
// a structured intake record into a personalized supplement protocol:
// safety screening, symptom-cluster matching, behavioral refinement,
// catalog enrichment, and a best-effort persistence write.
package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/arbilina/lumi-agent-engine/internal/catalog"
	"github.com/arbilina/lumi-agent-engine/internal/domain"
)

// persistTimeout bounds the single persistence attempt. There is no
// retry: the protocol is returned regardless, flagged FAILED on error.
const persistTimeout = 10 * time.Second

// Sink receives completed protocols. Implementations must treat the
// call as append-only; the engine never reads back.
type Sink interface {
	SaveProtocol(ctx context.Context, userID string, protocol domain.Protocol, raw domain.RawInputs) error
}

// Engine evaluates the rule pipeline. Safe for concurrent use: all
// rule tables are read-only and each invocation is independent.
type Engine struct {
	cat           *catalog.Catalog
	sink          Sink
	dashboardBase string
	log           *zap.Logger
}

// New creates an Engine. dashboardBase is the URL prefix for the
// per-user dashboard link, without a trailing slash.
func New(cat *catalog.Catalog, sink Sink, dashboardBase string, log *zap.Logger) *Engine {
	return &Engine{cat: cat, sink: sink, dashboardBase: dashboardBase, log: log}
}

// Warning text shown to users, keyed by the typed flag that drives the
// actual rule gating.
var warningText = map[domain.RiskFlag]string{
	domain.RiskSsriConflict:    "RISK: St. John's Wort is contraindicated with SSRIs and has been excluded.",
	domain.RiskThyroidConflict: "RISK: Ashwagandha is flagged due to potential interaction with thyroid medication. A replacement will be chosen.",
	domain.RiskLiver:           "RISK: Black Cohosh is avoided due to history of liver disorder.",
	domain.RiskEstrogen:        "RISK: Phytoestrogens (like Soy, Red Clover) are avoided due to your medical history.",
	domain.RiskIronUnconfirmed: "NOTE: Iron is not recommended unless a deficiency is confirmed. Low energy will be supported with B-vitamins and Magnesium.",
}

type riskSet map[domain.RiskFlag]bool

// BuildProtocol runs the full pipeline over one intake record. It
// never fails: missing signals fall back to defaults and a persistence
// error only downgrades the save status.
func (e *Engine) BuildProtocol(ctx context.Context, rec domain.IntakeRecord) domain.Protocol {
	userID := rec.UserID
	if userID == "" {
		userID = domain.AnonUserID
	}

	meds := lowerAll(rec.Medications)
	conditions := lowerAll(rec.Conditions)
	dietNotes := strings.ToLower(rec.DietNotes)
	movement := strings.ToLower(rec.Movement)
	if movement == "" {
		movement = "sedentary"
	}
	sleep := rec.Lifestyle.SleepQuality
	if sleep == "" {
		sleep = domain.SleepFair
	}
	stress := rec.Lifestyle.StressLevel
	stage := rec.MenopauseStage
	if stage == "" {
		stage = domain.StagePeri
	}

	// Stage A: safety screening. Flags gate everything downstream.
	risks, warnings := screen(meds, conditions)

	// Stage B: symptom-cluster matching.
	stack := buildBaseStack(lowerAll(rec.Symptoms), risks)

	// Stage C: behavioral refinement. Order matters: the magnesium
	// escalation mutates an entry Stage B added.
	refine(stack, risks, sleep, stress, dietNotes, movement)

	// Stage D: catalog enrichment and formatting.
	protocol := e.format(stack, warnings, sleep, stress)

	// Stage E: best-effort persistence.
	raw := domain.RawInputs{
		UserID:         userID,
		Symptoms:       rec.Symptoms,
		Medications:    rec.Medications,
		Conditions:     rec.Conditions,
		MenopauseStage: stage,
		Lifestyle:      domain.Lifestyle{SleepQuality: sleep, StressLevel: stress},
		Goals:          rec.Goals,
	}
	protocol.DBSaveStatus = e.persist(ctx, userID, protocol, raw)
	protocol.UserID = userID
	protocol.DashboardURL = fmt.Sprintf("%s/%s", e.dashboardBase, userID)

	return protocol
}

// screen evaluates the contraindication rules. Warning strings are
// emitted in rule order so the output is stable.
func screen(meds, conditions []string) (riskSet, []string) {
	risks := riskSet{}
	warnings := []string{}

	flag := func(f domain.RiskFlag) {
		risks[f] = true
		warnings = append(warnings, warningText[f])
	}

	if anyEquals(meds, "ssri", "antidepressant", "zoloft", "prozac") {
		flag(domain.RiskSsriConflict)
	}
	if anyContains(meds, "thyroid") {
		flag(domain.RiskThyroidConflict)
	}
	if anyEquals(conditions, "liver disorder", "liver disease") {
		flag(domain.RiskLiver)
	}
	if anyEquals(conditions, "estrogen-sensitive", "breast cancer") {
		flag(domain.RiskEstrogen)
	}

	// Iron note only applies when conditions were reported at all.
	if len(conditions) > 0 && !anyEquals(conditions, "iron deficiency", "anemia") {
		flag(domain.RiskIronUnconfirmed)
	}

	return risks, warnings
}

// buildBaseStack adds the unconditional core plus one addition per
// matched symptom cluster
func buildBaseStack(symptoms []string, risks riskSet) *Stack {
	stack := NewStack()

	stack.Add("Omega-3", Item{
		Rationale: "Core anti-inflammatory and brain support.",
		Dose:      "2000mg EPA/DHA",
		Cluster:   domain.ClusterCore,
	})
	stack.Add("Magnesium Glycinate", Item{
		Rationale: "Supports relaxation, sleep, muscle function, and energy.",
		Dose:      "300mg",
		Cluster:   domain.ClusterCore,
	})

	if anyEquals(symptoms, "brain fog", "fatigue", "low energy") {
		stack.Add("B-Complex", Item{
			Rationale: "Supports cellular energy production and cognitive clarity.",
			Dose:      "High-strength B50 or B100",
			Cluster:   domain.ClusterEnergy,
		})
	}

	if anyEquals(symptoms, "hot flashes", "night sweats") {
		if !risks[domain.RiskLiver] {
			stack.Add("Black Cohosh", Item{
				Rationale: "Evidence-backed support for reducing hot flashes.",
				Dose:      "40mg",
				Cluster:   domain.ClusterHormone,
			})
		} else if !risks[domain.RiskEstrogen] {
			stack.Add("Red Clover", Item{
				Rationale: "Phytoestrogen support for vasomotor symptoms.",
				Dose:      "40–80mg isoflavones",
				Cluster:   domain.ClusterHormone,
			})
		}
		// Both risks present: vitamin E only.
		stack.Add("Vitamin E", Item{
			Rationale: "May help reduce hot flash intensity.",
			Dose:      "400 IU",
			Cluster:   domain.ClusterHormone,
		})
	}

	if anyEquals(symptoms, "anxiety", "stress", "overwhelm") {
		stack.Add("L-Theanine", Item{
			Rationale: "Promotes a calm, alert state without drowsiness.",
			Dose:      "200mg",
			Cluster:   domain.ClusterStress,
		})
		if !risks[domain.RiskThyroidConflict] {
			stack.Add("Ashwagandha", Item{
				Rationale: "Adaptogen to support cortisol balance and stress resilience.",
				Dose:      "300–500mg",
				Cluster:   domain.ClusterStress,
			})
		}
	}

	if anyEquals(symptoms, "bloating", "gas", "indigestion") {
		stack.Add("Probiotic", Item{
			Rationale: "Supports gut microbiome balance and digestion.",
			Dose:      "20–50 billion CFU",
			Cluster:   domain.ClusterGut,
		})
		stack.Add("Digestive Enzymes", Item{
			Rationale: "Helps break down food to reduce indigestion and gas.",
			Dose:      "1 capsule with meals",
			Cluster:   domain.ClusterGut,
		})
	}

	if anyEquals(symptoms, "hair loss", "dry skin", "brittle nails") {
		stack.Add("Collagen", Item{
			Rationale: "Provides amino acids for hair, skin, and nail structure.",
			Dose:      "10–15g",
			Cluster:   domain.ClusterSkin,
		})
		stack.Add("Biotin", Item{
			Rationale: "Supports keratin production for hair and nails.",
			Dose:      "5000mcg",
			Cluster:   domain.ClusterSkin,
		})
		stack.Add("Vitamin C", Item{
			Rationale: "Essential for collagen synthesis and skin repair.",
			Dose:      "500–1000mg",
			Cluster:   domain.ClusterSkin,
		})
	}

	return stack
}

// refine applies the behavior-driven rules. These may add new items or
// mutate ones the base stage already placed.
func refine(stack *Stack, risks riskSet, sleep domain.SleepQuality, stress int, dietNotes, movement string) {
	if sleep == domain.SleepPoor {
		// If L-Theanine came in via the stress cluster it stays there;
		// only add the sleep-tagged entry when absent.
		stack.Add("L-Theanine", Item{
			Rationale: "Added to support sleep onset and quality.",
			Dose:      "200mg",
			Cluster:   domain.ClusterSleep,
		})
		stack.Mutate("Magnesium Glycinate", func(it *Item) {
			it.Dose = "400mg"
			it.Rationale += " Dose increased to further support sleep quality."
		})
	}

	// High stress re-checks the thyroid flag, so a thyroid interaction
	// suppresses Ashwagandha here as well as in the symptom stage.
	if stress >= 8 && !risks[domain.RiskThyroidConflict] {
		stack.Add("Ashwagandha", Item{
			Rationale: "Added due to high reported stress level (8+).",
			Dose:      "300–500mg",
			Cluster:   domain.ClusterStress,
		})
	}

	if strings.Contains(dietNotes, "low protein") {
		stack.Add("Collagen", Item{
			Rationale: "Supports connective tissue and protein intake.",
			Dose:      "10–15g",
			Cluster:   domain.ClusterSkin,
		})
	}

	if strings.Contains(dietNotes, "high sugar") {
		stack.Add("Chromium", Item{
			Rationale: "Supports healthy blood sugar regulation.",
			Dose:      "200mcg",
			Cluster:   domain.ClusterMetabolic,
		})
	}

	if movement == "weight_training" {
		stack.Add("Creatine", Item{
			Rationale: "Supports muscle mass, strength, and cognitive function.",
			Dose:      "5g",
			Cluster:   domain.ClusterMovement,
		})
	}
}

// Scheduling partition: which clusters are taken with breakfast vs
// before bed.
var morningClusters = map[domain.Cluster]bool{
	domain.ClusterEnergy:    true,
	domain.ClusterGut:       true,
	domain.ClusterSkin:      true,
	domain.ClusterMetabolic: true,
	domain.ClusterMovement:  true,
}

// format projects the stack into the final protocol shape: catalog
// enrichment, the two-line daily plan, and the narrative strings
func (e *Engine) format(stack *Stack, warnings []string, sleep domain.SleepQuality, stress int) domain.Protocol {
	fullStack := make([]domain.StackEntry, 0, stack.Len())
	var morning, evening []string

	stack.Each(func(name string, item Item) {
		entry := domain.StackEntry{
			Supplement:     name,
			Rationale:      item.Rationale,
			Dose:           item.Dose,
			Cluster:        item.Cluster,
			ExampleProduct: fmt.Sprintf("A quality brand %s", name),
			Link:           "SEARCH_REQUIRED",
		}
		// Missing catalog entries degrade to the generic product above.
		if p, ok := e.cat.Lookup(name); ok {
			entry.ExampleProduct = p.Product
			entry.Link = p.Link
		}
		fullStack = append(fullStack, entry)

		if morningClusters[item.Cluster] {
			morning = append(morning, name)
		} else {
			evening = append(evening, name)
		}
	})

	refinement := "refined using a foundational approach for balanced hormone support."
	if sleep != domain.SleepFair || stress != 5 {
		refinement = fmt.Sprintf("refined based on your %s sleep and %d/10 stress level.",
			strings.ToLower(string(sleep)), stress)
	}

	return domain.Protocol{
		FullStack: fullStack,
		RationaleSummary: "Your plan was built using evidence-backed clusters, targeting your key symptoms and " +
			refinement,
		DailyPlan: []string{
			"Morning (with breakfast): " + strings.Join(morning, ", "),
			"Evening (60 min before bed): " + strings.Join(evening, ", "),
		},
		BenefitTimeline: "You may feel improvements in sleep and energy within 1–2 weeks. " +
			"Hormonal, skin, and hair changes often take 6–12 weeks of consistent use.",
		Monitored: []string{
			"Symptom intensity/frequency",
			"Sleep quality",
			"Stress level",
		},
		AdjustmentsPlan: "We will check in at 7 days to monitor side effects and adherence, and " +
			"again at 30 days to assess improvements and modify your stack.",
		Warnings: warnings,
	}
}

// persist makes a single bounded write attempt. The protocol is
// user-facing value and is returned whether or not the write lands.
func (e *Engine) persist(ctx context.Context, userID string, protocol domain.Protocol, raw domain.RawInputs) string {
	ctx, cancel := context.WithTimeout(ctx, persistTimeout)
	defer cancel()

	if err := e.sink.SaveProtocol(ctx, userID, protocol, raw); err != nil {
		e.log.Warn("protocol save failed",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return domain.SaveFailed
	}
	return domain.SaveSuccess
}

func lowerAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = strings.ToLower(s)
	}
	return out
}

// anyEquals reports whether the list contains any of the given values
// verbatim
func anyEquals(list []string, values ...string) bool {
	for _, v := range values {
		for _, item := range list {
			if item == v {
				return true
			}
		}
	}
	return false
}

// anyContains reports whether any list item contains the substring
func anyContains(list []string, substr string) bool {
	for _, item := range list {
		if strings.Contains(item, substr) {
			return true
		}
	}
	return false
}
