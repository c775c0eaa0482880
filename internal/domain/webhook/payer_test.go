package webhook

import "testing"

func TestParsePayer(t *testing.T) {
	tests := []struct {
		name                                   string
		studentID, description, product, g, c  string
		wantID, wantFirst, wantLast, wantGrade string
		wantClass                              string
	}{
		{
			name: "bare id", studentID: "STU001", product: "weekly",
			wantID: "STU001", wantFirst: "Unknown", wantLast: "Student", wantGrade: "Unknown", wantClass: "Unknown",
		},
		{
			name: "name and id", studentID: "Mary Ann Lee STU123", description: "Lunch plan Grade 4b", product: "monthly",
			wantID: "STU123", wantFirst: "Mary", wantLast: "Ann Lee", wantGrade: "4B", wantClass: "Unknown",
		},
		{
			name: "short grade in product", studentID: "Tom STU9", product: "Weekly G 7",
			wantID: "STU9", wantFirst: "Tom", wantLast: "Student", wantGrade: "7", wantClass: "Unknown",
		},
		{
			name: "explicit fields win", studentID: "STU5", description: "Grade 9", product: "weekly", g: "3", c: "3C",
			wantID: "STU5", wantFirst: "Unknown", wantLast: "Student", wantGrade: "3", wantClass: "3C",
		},
		{
			name: "no false grade match", studentID: "STU6", product: "Pkg5 bundle",
			wantID: "STU6", wantFirst: "Unknown", wantLast: "Student", wantGrade: "Unknown", wantClass: "Unknown",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := ParsePayer(tc.studentID, tc.description, tc.product, tc.g, tc.c)
			if d.StudentID != tc.wantID || d.FirstName != tc.wantFirst || d.LastName != tc.wantLast ||
				d.Grade != tc.wantGrade || d.Class != tc.wantClass {
				t.Fatalf("unexpected draft %+v", d)
			}
		})
	}
}

func TestAmountValue(t *testing.T) {
	for raw, want := range map[string]float64{"25.00": 25, "$1,250.50": 1250.5, "": 0, "abc": 0} {
		p := Payload{Amount: flexString(raw)}
		if got := p.AmountValue(); got != want {
			t.Errorf("AmountValue(%q) = %v, want %v", raw, got, want)
		}
	}
}
