package prompts

var truthOrDare = []Prompt{
	{KindTruth, "What did you think of me the first time we talked?", CategoryRomantic},
	{KindTruth, "Which song makes you think of us?", CategoryRomantic},
	{KindTruth, "What is a small thing I do that you secretly love?", CategoryRomantic},
	{KindTruth, "Where would our perfect weekend away be?", CategoryRomantic},
	{KindTruth, "What is the strangest thing you have ever eaten?", CategoryFun},
	{KindTruth, "Which movie do you pretend to dislike but love?", CategoryFun},
	{KindTruth, "What is your karaoke song of choice?", CategoryFun},
	{KindTruth, "What is something you have changed your mind about this year?", CategoryDeep},
	{KindTruth, "What are you most proud of that nobody asks about?", CategoryDeep},
	{KindTruth, "What does a good day look like for you?", CategoryDeep},
	{KindTruth, "What is the silliest reason you have ever cried?", CategorySilly},
	{KindTruth, "If you were a kitchen appliance, which would you be?", CategorySilly},
	{KindDare, "Describe our first date as a movie trailer.", CategoryRomantic},
	{KindDare, "Write a two line poem about me and read it out.", CategoryRomantic},
	{KindDare, "Send me a photo of the view from where you are.", CategoryRomantic},
	{KindDare, "Do your best impression of a famous actor.", CategoryFun},
	{KindDare, "Sing the chorus of the last song you listened to.", CategoryFun},
	{KindDare, "Show me the oldest photo in your camera roll.", CategoryFun},
	{KindDare, "Tell me something you have never told anyone.", CategoryDeep},
	{KindDare, "Say three things you appreciate about yourself.", CategoryDeep},
	{KindDare, "Talk in a pirate accent until your next turn.", CategorySilly},
	{KindDare, "Balance a spoon on your nose for ten seconds.", CategorySilly},
	{KindDare, "Do a dramatic reading of your last text message.", CategorySilly},
}

var wouldRather = []Scenario{
	{"Be able to fly", "Be able to become invisible"},
	{"Live in the past", "Live in the future"},
	{"Give up social media", "Give up movies and series"},
	{"Always be ten minutes late", "Always be twenty minutes early"},
	{"Have a cabin in the mountains", "Have a house on the beach"},
	{"Only eat breakfast food", "Never eat breakfast food again"},
	{"Travel the world for a year", "Get a dream house at home"},
	{"Read minds", "See the future"},
	{"Have a pet dragon", "Have a pet unicorn"},
	{"Speak every language", "Play every instrument"},
	{"Watch only comedies", "Watch only thrillers"},
	{"Go on a road trip", "Go on a cruise"},
}

var moreLikely = []string{
	"Who is more likely to fall asleep during a movie?",
	"Who is more likely to cry at a sad film?",
	"Who is more likely to forget an anniversary?",
	"Who is more likely to plan a surprise trip?",
	"Who is more likely to burn dinner?",
	"Who is more likely to adopt a stray animal?",
	"Who is more likely to get lost with a map in hand?",
	"Who is more likely to start a dance party?",
	"Who is more likely to binge a whole series in one night?",
	"Who is more likely to win an argument?",
	"Who is more likely to laugh at the wrong moment?",
	"Who is more likely to text back instantly?",
}
