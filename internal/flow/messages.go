package flow

// Default bot messages, in Devanagari for the Hindi TTS voice.
// {{customer_name}} is substituted at speak time.
const (
	msgGreeting = "नमस्ते, मैं %s की तरफ़ से बात कर रही हूँ, क्या मेरी बात {{customer_name}} जी से हो रही है?"

	msgClosingSuccess = "धन्यवाद आपके समय के लिए। आपकी फीडबैक हमारे लिए बहुत महत्वपूर्ण है। आपका दिन शुभ हो!"

	msgClosingAlternateContact = "धन्यवाद आपके समय के लिए। हम आपके द्वारा बताए गए समय पर ग्राहक से संपर्क करेंगे। आपका दिन शुभ हो!"

	msgWrongNumberApology = "माफ़ कीजिए, गलत नंबर पर कॉल कर दी। धन्यवाद आपके समय के लिए। आपका दिन शुभ हो!"

	msgClosingGeneric = "धन्यवाद आपके समय के लिए। आपका दिन शुभ हो!"

	msgMaxRetries = "माफ़ कीजिए, मैं आपका उत्तर समझ नहीं पा रही हूँ। धन्यवाद आपके समय के लिए। आपका दिन शुभ हो!"
)
