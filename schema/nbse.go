package schema

import "fmt"

// Built-in descriptor names accepted by Builtin.
const (
	BuiltinNBSE         = "nbse"
	BuiltinNBSEDetailed = "nbse-detailed"
)

// Allowed values of the enumerated NBSE fields.
var (
	SexValues           = []string{"male", "female"}
	EncounterTypeValues = []string{"in-person", "telephone", "VVC"}
	DiagnosisValues     = []string{
		"Normal Cognition",
		"Subjective Cognitive Decline (SCD)",
		"Mild Cognitive Impairment (MCI)",
		"Very Mild Dementia",
		"Mild Dementia",
		"Moderate Dementia",
		"Severe Dementia",
	}
)

// Builtin returns a built-in descriptor by name.
func Builtin(name string) (*Schema, error) {
	switch name {
	case BuiltinNBSE, "":
		return NBSEReport(), nil
	case BuiltinNBSEDetailed:
		return NBSEReportDetailed(), nil
	default:
		return nil, fmt.Errorf("unknown built-in schema %q", name)
	}
}

// NBSEReport describes the flat neurobehavioral status exam report used for
// tabulation: one column per field, totals only.
func NBSEReport() *Schema {
	return MustNew("Report",
		// Patient information
		Integer("vac").WithRange(0, 3000).WithDescription("Unique VAC numeric identifier."),
		Date("completed").WithDescription("Date the test was completed, in ISO format."),
		Integer("age").WithMinimum(0).WithDescription("Patient age."),
		String("sex").WithEnum(SexValues...).WithDescription("Sex of the patient, 'male' or 'female'."),
		Integer("education").WithMinimum(0).WithDescription("Years of education."),
		String("encounter_type").WithEnum(EncounterTypeValues...).
			WithDescription("Encounter type, one of: 'in-person', 'telephone', 'VVC'."),

		// Screening totals
		Integer("moca_total_score").WithRange(0, 30).WithDescription("Total score for the MoCA test (0-30)."),
		Integer("mmse_total_score").WithRange(0, 30).WithDescription("Total score for the MMSE test."),
		Integer("aces_total_score").WithRange(0, 30).WithDescription("Total score for the ACES test."),

		// CERAD word list
		Integer("cerad_encoding_total").WithDescription("Total score for Encoding, sum of three trials (0-30)."),
		Integer("cerad_delayed_recall").WithRange(0, 10).WithDescription("Score for Delayed Recall (0-10)."),
		Integer("cerad_corrected_recognition_total").WithDescription("Corrected Recognition Total (RH-FP)."),

		// Trail making
		Number("trailsa_time_in_seconds").WithMinimum(0).
			WithDescription("Time to complete the Trails A test in seconds (including oral trails)."),
		Integer("trailsa_errors").WithMinimum(0).WithDescription("Number of errors made during the Trails A test."),
		Number("trailsb_time_in_seconds").WithMinimum(0).
			WithDescription("Time to complete the Trails B test in seconds (including oral trails)."),
		Integer("trailsb_errors").WithMinimum(0).WithDescription("Number of errors made during the Trails B test."),

		// Fluency and naming
		Integer("letter_fluency_total").WithMinimum(0).WithDescription("The total score for letter fluency."),
		Integer("category_fluency_total").WithMinimum(0).WithDescription("The total score for category fluency."),
		Integer("boston_naming_total_score").WithRange(0, 15).
			WithDescription("Boston Naming Test (BNT): Total score out of 15."),
		Integer("verbal_naming_total_score").WithRange(0, 55).
			WithDescription("Verbal Naming Test (VNT): Total score out of 55."),

		Array("medications", String("")).
			WithDescription("List of current Medications. Only medication name and strength, remove directions."),

		// Conclusions
		Boolean("adl_impaired").
			WithDescription("True if activities of daily living (ADL) are impaired, False if intact (independent)."),
		Boolean("iadl_impaired").WithDescription("True if iADL are impaired, False if intact (independent)."),
		String("diagnosis").WithEnum(DiagnosisValues...).
			WithDescription("Most appropriate diagnosis at this time. One of: Normal Cognition, Subjective Cognitive Decline (SCD), Mild Cognitive Impairment (MCI), Very Mild Dementia, Mild Dementia, Moderate Dementia, Severe Dementia. No other values allowed."),
		String("clinical_syndrome").
			WithDescription("Clinical Syndrome (Examples: amnestic mci, progressive amnestic dysfunction, primary progressive aphasia, executive dysfunction, global cognitive impairment, alzheimer's disease, traumatic encephalopathy). null if it cannot be determined."),
		Boolean("neuropsychological_testing_recommended").
			WithDescription("True if the report summary recommends neuropsychological testing after this visit. False otherwise (Example: neuropsychological testing was in the past -> False)."),
		Boolean("pet_recommended").
			WithDescription("True if the report summary requests or recommends amyloid PET. False otherwise."),
	)
}

// NBSEReportDetailed describes the full report with one nested object per
// instrument, including subsection scores.
func NBSEReportDetailed() *Schema {
	total := func(max float64, desc string) *Field {
		return Integer("total_score").WithRange(0, max).WithDescription(desc)
	}
	notes := func(desc string) *Field { return String("notes").WithDescription(desc) }
	count := func(name, desc string) *Field { return Integer(name).WithMinimum(0).WithDescription(desc) }

	letterFluency := []*Field{count("total", "The total score for letter fluency.")}
	for _, letter := range []string{"F", "A", "S"} {
		letterFluency = append(letterFluency,
			count(letter+"_score", "Score for letter "+letter+"."),
			count(letter+"_rule_breaks", "Number of rule breaks for letter "+letter+"."),
			count(letter+"_repetitions", "Number of repetitions for letter "+letter+"."),
		)
	}
	categoryFluency := []*Field{count("total", "The total score for category fluency.")}
	for _, category := range []string{"Animals", "Vegetables", "Fruits"} {
		categoryFluency = append(categoryFluency,
			count(category+"_score", "Score for category "+category+"."),
			count(category+"_rule_breaks", "Number of rule breaks for category "+category+"."),
			count(category+"_repetitions", "Number of repetitions for category "+category+"."),
		)
	}

	return MustNew("Report",
		Integer("vac").WithRange(0, 3000).WithDescription("Unique VAC numeric identifier."),
		Date("completed").WithDescription("Date the test was completed."),
		Integer("age").WithMinimum(0).WithDescription("Patient age."),
		String("sex").WithEnum(SexValues...).WithDescription("Sex of the patient, 'male' or 'female'."),
		Integer("education").WithMinimum(0).WithDescription("Years of education."),
		String("encounter_type").WithEnum(EncounterTypeValues...).
			WithDescription("Encounter type, one of: 'in-person', 'telephone', 'VVC'."),

		Object("moca",
			Integer("visuospatial_executive").WithRange(0, 5).WithDescription("Score for Visuospatial/Executive section (0-5)."),
			Integer("naming").WithRange(0, 3).WithDescription("Score for Naming section (0-3)."),
			Integer("attention").WithRange(0, 6).WithDescription("Score for Attention section (0-6)."),
			Integer("language").WithRange(0, 3).WithDescription("Score for Language section (0-3)."),
			Integer("abstraction").WithRange(0, 2).WithDescription("Score for Abstraction section (0-2)."),
			Integer("delayed_recall").WithRange(0, 5).WithDescription("Score for Delayed Recall/Memory section (0-5)."),
			Integer("orientation").WithRange(0, 6).WithDescription("Score for Orientation section (0-6)."),
			total(30, "Total score for the MoCA test (0-30)."),
			notes("Notes about MoCA."),
		).WithDescription("Montreal Cognitive Assessment (MoCA) results."),

		Object("mmse",
			Integer("orientation").WithRange(0, 10).WithDescription("Score for Orientation to Time and Space."),
			Integer("registration").WithRange(0, 3).WithDescription("Score for Registration."),
			Integer("attention_and_calculation").WithRange(0, 5).WithDescription("Score for Attention and Calculation."),
			Integer("recall").WithRange(0, 3).WithDescription("Score for Recall."),
			Integer("language").WithRange(0, 8).WithDescription("Score for Language."),
			Integer("visual_construction").WithRange(0, 1).WithDescription("Score for Visual Construction/Copying."),
			total(30, "Total score for the MMSE test."),
			notes("Notes about MMSE."),
		).WithDescription("Mini-Mental State Examination (MMSE) results."),

		Object("cerad",
			Array("encoding_trials", Integer("").WithRange(0, 10)).
				WithDescription("Scores for the three encoding trials (0-10)."),
			Integer("encoding_total").WithDescription("Total score for Encoding."),
			Integer("delayed_recall").WithRange(0, 10).WithDescription("Score for Delayed Recall (0-10, cutoff: 5)."),
			Integer("recognition_hits").WithRange(0, 10).WithDescription("Number of Recognition Hits (RH) (0-10)."),
			Integer("false_positives").WithRange(0, 10).WithDescription("Number of False Positives (FP) (0-10)."),
			Integer("corrected_recognition_total").WithDescription("Corrected Recognition Total (RH-FP, cutoff: 8)."),
			Integer("rapid_forgetting").WithDescription("Score for Rapid Forgetting."),
			Map("rapid_forgetting_words", Integer("")).
				WithDescription("Encoded words subject to rapid forgetting, with how many times they were encoded."),
		).WithDescription("CERAD word list memory test results."),

		Object("trailsa",
			Number("time_in_seconds").WithMinimum(0).WithDescription("Time to complete the test in seconds."),
			count("errors", "Number of errors made during the test."),
			notes("Notes about Trails A."),
		).WithDescription("Trail Making Test part A (including oral version)."),

		Object("trailsb",
			Number("time_in_seconds").WithMinimum(0).WithDescription("Time to complete the test in seconds."),
			count("errors", "Number of errors made during the test."),
			notes("Notes about Trails B."),
		).WithDescription("Trail Making Test part B (including oral version)."),

		Object("fluencytest",
			Object("letter_fluency", letterFluency...).WithDescription("Letter Fluency test: letters F, A, S."),
			Object("category_fluency", categoryFluency...).
				WithDescription("Category Fluency test: categories Animals, Vegetables, Fruits."),
			notes("Notes about fluency tests."),
		).WithDescription("Letter and Category fluency test results."),

		Object("bostonnamingtest",
			total(15, "Total score out of 15."),
			count("missed", "Number of missed items."),
			count("semantic_cues", "Number of semantic cues used (SC)."),
			count("phonemic_cues", "Number of phonemic cues used (PC)."),
			notes("A summary of the test performance."),
		).WithDescription("Boston Naming Test - Short Form (BNT-15)."),

		Object("verbalnamingtest",
			total(55, "Total score out of 55."),
			count("missed", "Number of missed items."),
			count("phonemic_cues", "Number of phonemic cues used (PC)."),
			notes("A summary of the test performance."),
		).WithDescription("Verbal Naming Test results."),

		Object("gds", total(15, "Total score out of 15."), notes("A summary of the results.")).
			WithDescription("Geriatric Depression Scale (GDS)."),
		Object("gai", total(20, "Total score out of 20."), notes("A summary of the results.")).
			WithDescription("Geriatric Anxiety Index (GAI)."),
		Object("lubben", total(30, "Total score out of 30."), notes("A summary of the results.")).
			WithDescription("Lubben Social Network Scale (LSNS-6)."),
		Object("uclaloneliness", total(9, "Total score out of 9."), notes("A summary of the results.")).
			WithDescription("UCLA Loneliness Scale."),

		String("behavioral_observations").WithDescription("Behavioral observations."),
		String("history").WithDescription("History."),
		Array("medications", String("")).WithDescription("List of current Medications."),
		String("summary").WithDescription("Overall report summary."),
	)
}
