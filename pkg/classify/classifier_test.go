package classify

import (
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  Category
	}{
		// Greetings
		{
			name:  "english greeting",
			query: "hello",
			want:  CategoryGreeting,
		},
		{
			name:  "greeting prefix wins over embedded question",
			query: "hello, what is the capital of Egypt?",
			want:  CategoryGreeting,
		},
		{
			name:  "uppercase greeting",
			query: "HELLO",
			want:  CategoryGreeting,
		},
		{
			name:  "good morning",
			query: "Good Morning team",
			want:  CategoryGreeting,
		},
		{
			name:  "arabic salam",
			query: "السلام عليكم",
			want:  CategoryGreeting,
		},
		{
			name:  "arabic salam with question",
			query: "السلام عليكم، كيف أجدد الاشتراك؟",
			want:  CategoryGreeting,
		},
		{
			name:  "arabic marhaba",
			query: "مرحبا",
			want:  CategoryGreeting,
		},
		{
			name:  "arabic ahlan with tanween",
			query: "أهلاً وسهلاً",
			want:  CategoryGreeting,
		},
		{
			name:  "arabic sabah alkhair",
			query: "صباح الخير",
			want:  CategoryGreeting,
		},
		{
			name:  "bare salam",
			query: "سلام",
			want:  CategoryGreeting,
		},

		// Calculations
		{
			name:  "simple addition",
			query: "5 + 3",
			want:  CategoryCalculation,
		},
		{
			name:  "division with spaces",
			query: "20 / 4",
			want:  CategoryCalculation,
		},
		{
			name:  "unicode multiplication",
			query: "7×8",
			want:  CategoryCalculation,
		},
		{
			name:  "unicode division",
			query: "٢٠ ÷ ٤",
			want:  CategoryCalculation,
		},
		{
			name:  "arabic calculate keyword",
			query: "احسب مجموع المبلغين",
			want:  CategoryCalculation,
		},
		{
			name:  "arabic how much equals",
			query: "كم يساوي خمسة زائد ثلاثة",
			want:  CategoryCalculation,
		},
		{
			name:  "english calculate keyword",
			query: "calculate the total",
			want:  CategoryCalculation,
		},

		// Simple answers
		{
			name:  "who are you",
			query: "who are you?",
			want:  CategorySimpleAnswer,
		},
		{
			name:  "thank you",
			query: "thank you so much",
			want:  CategorySimpleAnswer,
		},
		{
			name:  "arabic who are you",
			query: "من أنت",
			want:  CategorySimpleAnswer,
		},
		{
			name:  "arabic your name",
			query: "ما اسمك",
			want:  CategorySimpleAnswer,
		},
		{
			name:  "arabic thanks",
			query: "شكرا جزيلا",
			want:  CategorySimpleAnswer,
		},
		{
			name:  "arabic how are you",
			query: "كيف حالك",
			want:  CategorySimpleAnswer,
		},

		// Retrieval fallthrough
		{
			name:  "knowledge question",
			query: "ما هي سياسة الاسترجاع؟",
			want:  CategoryRetrieval,
		},
		{
			name:  "english knowledge question",
			query: "how do I reset my router password",
			want:  CategoryRetrieval,
		},
		{
			name:  "empty query defaults to retrieval",
			query: "",
			want:  CategoryRetrieval,
		},
		{
			name:  "whitespace only defaults to retrieval",
			query: "   \t  ",
			want:  CategoryRetrieval,
		},
		{
			name:  "unknown script falls through",
			query: "こんにちは",
			want:  CategoryRetrieval,
		},
		{
			name:  "hi inside a word does not match",
			query: "history of the ottoman empire",
			want:  CategoryRetrieval,
		},
		{
			name:  "salama inside a word is not a greeting",
			query: "سلامة الأجهزة في المختبر",
			want:  CategoryRetrieval,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.query)
			if got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}

func TestClassifyCaseInsensitive(t *testing.T) {
	pairs := [][2]string{
		{"HELLO", "hello"},
		{"Thank You", "thank you"},
		{"CALCULATE 5 plus 3", "calculate 5 plus 3"},
	}

	for _, p := range pairs {
		if Classify(p[0]) != Classify(p[1]) {
			t.Errorf("Classify(%q) != Classify(%q)", p[0], p[1])
		}
	}
}

func TestClassifyGroupOrder(t *testing.T) {
	// A greeting followed by an arithmetic expression still classifies as
	// a greeting: group order is part of the contract.
	got := Classify("hello 5 + 3")
	if got != CategoryGreeting {
		t.Errorf("Classify(greeting + expression) = %v, want %v", got, CategoryGreeting)
	}

	// An arithmetic expression with small-talk wording stays a calculation.
	got = Classify("كم يساوي ٥ + ٣ شكرا")
	if got != CategoryCalculation {
		t.Errorf("Classify(calculation + thanks) = %v, want %v", got, CategoryCalculation)
	}
}
