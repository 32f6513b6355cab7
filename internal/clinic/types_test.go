package clinic

import "testing"

func TestParseRole(t *testing.T) {
	if _, err := ParseRole("DOCTOR"); err != nil {
		t.Fatalf("DOCTOR should parse: %v", err)
	}
	if _, err := ParseRole("ADMIN"); err == nil {
		t.Fatal("ADMIN is not a portal role")
	}
	if _, err := ParseRole("patient"); err == nil {
		t.Fatal("roles are case-sensitive wire values")
	}
}

func TestParseSpecialty(t *testing.T) {
	for _, sp := range Specialties {
		if _, err := ParseSpecialty(string(sp)); err != nil {
			t.Errorf("%s should parse: %v", sp, err)
		}
	}
	if _, err := ParseSpecialty("ASTROLOGIST"); err == nil {
		t.Fatal("unknown specialty should be rejected")
	}
}

func TestSlotSelectable(t *testing.T) {
	tests := []struct {
		name string
		slot TimeSlot
		want bool
	}{
		{"available", TimeSlot{Status: SlotAvailable}, true},
		{"no status, unbooked", TimeSlot{}, true},
		{"is_booked flag", TimeSlot{IsBooked: true}, false},
		{"booked status", TimeSlot{Status: SlotBooked}, false},
		{"canceled status", TimeSlot{Status: SlotCanceled}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.slot.Selectable(); got != tt.want {
				t.Errorf("Selectable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAppointmentTransitions(t *testing.T) {
	scheduled := Appointment{Status: AppointmentScheduled}
	if !scheduled.CanTransition(AppointmentCompleted) {
		t.Error("SCHEDULED -> COMPLETED should be allowed")
	}
	if !scheduled.CanTransition(AppointmentCanceled) {
		t.Error("SCHEDULED -> CANCELED should be allowed")
	}
	if scheduled.CanTransition(AppointmentScheduled) {
		t.Error("SCHEDULED -> SCHEDULED is not a transition")
	}

	done := Appointment{Status: AppointmentCompleted}
	if done.CanTransition(AppointmentCanceled) {
		t.Error("COMPLETED appointments are terminal")
	}
}

func TestCanRate(t *testing.T) {
	if !(Appointment{Status: AppointmentCompleted}).CanRate() {
		t.Error("completed, unrated appointment should be ratable")
	}
	if (Appointment{Status: AppointmentCompleted, IsRated: true}).CanRate() {
		t.Error("already rated appointment must not be ratable")
	}
	if (Appointment{Status: AppointmentScheduled}).CanRate() {
		t.Error("scheduled appointment must not be ratable")
	}
}
