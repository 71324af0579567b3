package conversation

// Keyword tables used by the detectors. They are declared once here rather
// than scattered through the flow logic so each table can be tested and
// extended on its own.

// languageHints score the first message of a session. Whole-word matches are
// counted per language and the higher count wins; ties go to Spanish.
var languageHints = map[string][]string{
	"es": {
		"hola", "buenas", "quiero", "quisiera", "reservar", "reserva",
		"precio", "cuanto", "cuesta", "curso", "buceo", "bucear",
		"bautismo", "inmersion", "inmersiones", "gracias", "donde",
		"cuando", "como", "tengo", "somos", "para", "con", "una", "por",
	},
	"en": {
		"hello", "hi", "hey", "the", "what", "how", "much", "price",
		"cost", "would", "like", "want", "book", "booking", "dive",
		"diving", "course", "certified", "thanks", "when", "where",
		"can", "you", "are", "i'm", "we're", "do", "does",
	},
}

// bookingIntent phrases flip the flow from answering questions to slot
// filling. Matched as substrings of the normalized message.
var bookingIntent = map[string][]string{
	"es": {
		"reservar", "reserva", "apuntarme", "apuntarnos", "apuntar",
		"quiero plaza", "quiero hacer el", "quiero hacer un",
		"me apunto", "inscribirme",
	},
	"en": {
		"book", "reserve", "sign up", "sign me up", "i want a spot",
		"i would like to do the", "i'd like to do the", "put me down",
	},
}

// activityOverride phrases let the visitor explicitly change a previously
// detected activity. Passive keyword matches never change it.
var activityOverride = map[string][]string{
	"es": {
		"cambiar de actividad", "cambiar actividad", "otra actividad",
		"mejor otra actividad", "prefiero otra",
	},
	"en": {
		"change activity", "change my activity", "different activity",
		"another activity", "switch activity",
	},
}
