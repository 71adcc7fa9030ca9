package classifier

// Intent labels.
const (
	IntentGreeting     = "greeting"
	IntentHelp         = "help"
	IntentComplaint    = "complaint"
	IntentDocument     = "document"
	IntentPolicy       = "policy"
	IntentBusiness     = "business"
	IntentConstruction = "construction"
	IntentEmergency    = "emergency"
	IntentInformation  = "information"
	IntentGeneral      = "general"
)

// Situation labels. Situation templates are looked up by these titles.
const (
	SituationFilingComplaint    = "Filing Complaint"
	SituationDocumentRequest    = "Document Request"
	SituationBusinessPermit     = "Business Permit"
	SituationConstructionPermit = "Construction Permit"
	SituationNeighborDispute    = "Neighbor Dispute"
	SituationEmergency          = "Emergency"
	SituationSocialWelfare      = "Social Welfare"
	SituationCommunityEvents    = "Community Events"
)

// Intents is the intent table. Order breaks ties.
var Intents = Table{
	{Label: IntentGreeting, Keywords: []string{
		"hello", "hi", "hey", "good morning", "good afternoon", "good evening",
		"kumusta", "kamusta", "magandang umaga", "magandang hapon", "magandang gabi",
		"musta", "morning", "evening", "afternoon",
	}},
	{Label: IntentHelp, Keywords: []string{
		"help", "tulong", "assist", "guide", "kailangan", "need help",
		"patulong", "help me", "tulungan", "pano", "how to", "pwede ba",
	}},
	{Label: IntentComplaint, Keywords: []string{
		"complaint", "reklamo", "problem", "issue", "concern", "report",
		"maingay", "noise", "disturbance", "away", "alitan", "trouble",
		"gusto kong ireklamo", "mag-complain", "problema", "hirap",
	}},
	{Label: IntentDocument, Keywords: []string{
		"document", "certificate", "clearance", "permit", "id", "cedula",
		"certification", "papel", "dokumento", "kailangan ng", "need a",
		"barangay clearance", "brgy clearance", "residency", "indigency",
		"certificate of", "requirement", "requirements",
	}},
	{Label: IntentPolicy, Keywords: []string{
		"policy", "ordinance", "rule", "regulation", "batas", "alituntunin",
		"patakaran", "ordinansa", "what is the policy", "ano ang batas",
		"bawal ba", "pwede ba", "allowed", "legal",
	}},
	{Label: IntentBusiness, Keywords: []string{
		"business", "negosyo", "permit", "business permit", "tindahan",
		"store", "sari-sari", "shop", "online business", "home based",
		"magtayo ng negosyo", "start a business", "renewal", "renew",
	}},
	{Label: IntentConstruction, Keywords: []string{
		"construction", "building", "renovate", "gusali", "build", "itayo",
		"pagawa", "house", "bahay", "garage", "extension", "repair",
		"fence", "bakod", "gate", "remodel", "addition",
	}},
	{Label: IntentEmergency, Keywords: []string{
		"emergency", "urgent", "asap", "help now", "fire", "sunog",
		"flood", "baha", "accident", "aksidente", "injured", "sugatan",
		"violence", "abuse", "danger", "panganib", "immediately", "agad",
	}},
	{Label: IntentInformation, Keywords: []string{
		"what", "when", "where", "how", "who", "why",
		"ano", "saan", "paano", "kailan", "sino", "bakit",
		"information", "info", "details", "impormasyon", "schedule",
		"office hours", "location", "contact", "number",
	}},
}

// Situations is the situation table. Order breaks ties.
var Situations = Table{
	{Label: SituationFilingComplaint, Keywords: []string{
		"complaint", "reklamo", "report", "mag-complain", "ireklamo",
		"problema sa", "issue with", "gusto kong mag-report", "file a complaint",
	}},
	{Label: SituationDocumentRequest, Keywords: []string{
		"document", "certificate", "clearance", "id", "certification",
		"kailangan ng", "need a", "apply for", "get a", "request",
		"barangay clearance", "residency", "indigency", "cedula",
	}},
	{Label: SituationBusinessPermit, Keywords: []string{
		"business permit", "negosyo", "business", "permit para sa negosyo",
		"magtayo ng negosyo", "open a business", "start business",
		"tindahan", "sari-sari", "online business", "renewal ng business",
	}},
	{Label: SituationConstructionPermit, Keywords: []string{
		"construction", "building permit", "renovate", "build", "itayo",
		"pagawa", "construct", "extension", "addition", "repair",
		"fence", "gate", "construction clearance", "building clearance",
	}},
	{Label: SituationNeighborDispute, Keywords: []string{
		"neighbor", "kapitbahay", "dispute", "away", "alitan",
		"problema sa kapitbahay", "issue with neighbor", "boundary",
		"hangganan", "noise from neighbor", "maingay na kapitbahay",
		"maingay", "ingay",
	}},
	{Label: SituationEmergency, Keywords: []string{
		"emergency", "urgent", "fire", "flood", "sunog", "baha",
		"accident", "aksidente", "help now", "agad", "emergency situation",
		"violence", "danger", "injured", "medical emergency",
	}},
	{Label: SituationSocialWelfare, Keywords: []string{
		"assistance", "tulong", "ayuda", "financial help", "indigency",
		"medical assistance", "tulong medikal", "scholarship", "burial assistance",
		"senior citizen", "pwd", "person with disability", "ayuda pang-medika",
	}},
	{Label: SituationCommunityEvents, Keywords: []string{
		"event", "program", "activity", "celebration", "meeting",
		"assembly", "pulong", "gathering", "fiesta", "community program",
	}},
}
