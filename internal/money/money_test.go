package money

import "testing"

func TestArithmeticRoundsToPaise(t *testing.T) {
	if got := Add(0.1, 0.2); got != 0.3 {
		t.Fatalf("Add = %v", got)
	}
	if got := Sub(250000, 200000); got != 50000 {
		t.Fatalf("Sub = %v", got)
	}
	if got := SubFloor(100, 150); got != 0 {
		t.Fatalf("SubFloor = %v", got)
	}
	if got := Percent(50000, 10); got != 5000 {
		t.Fatalf("Percent = %v", got)
	}
	if got := Percent(45000, 10); got != 4500 {
		t.Fatalf("Percent = %v", got)
	}
	if got := Percent(333.33, 33); got != 110 {
		t.Fatalf("Percent rounding = %v", got)
	}
	if got := Ratio(20000, 70000); got != 28.5714 {
		t.Fatalf("Ratio = %v", got)
	}
	if got := Ratio(1, 0); got != 0 {
		t.Fatalf("Ratio zero den = %v", got)
	}
	if got := Units(1000, 12.5); got != 80 {
		t.Fatalf("Units = %v", got)
	}
	if got := Sum(0.1, 0.2, 0.3); got != 0.6 {
		t.Fatalf("Sum = %v", got)
	}
}
