package core

import "testing"

func TestDealStageValid(t *testing.T) {
	for _, s := range Stages() {
		if !s.IsValid() {
			t.Fatalf("stage %q should be valid", s)
		}
	}
	for _, s := range []DealStage{"", "won", "PAID", "unassigned"} {
		if s.IsValid() {
			t.Fatalf("stage %q should be invalid", s)
		}
	}
}

func TestDealStageResolved(t *testing.T) {
	resolved := map[DealStage]bool{
		StageLead: false, StageInDevelopment: false, StageProposal: false,
		StageDiscoveryCall: false, StagePaid: true, StageDoneCompleted: true,
		StageCancelled: true,
	}
	for s, want := range resolved {
		if got := s.Resolved(); got != want {
			t.Fatalf("%q resolved = %v, want %v", s, got, want)
		}
	}
}

func TestDealValidate(t *testing.T) {
	good := Deal{Title: "Acme renewal", Value: Money{Cents: 100000}, Stage: StageProposal, Tier: TierEnterprise}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	// Zero value and absent tier are both fine.
	if err := (Deal{Title: "a", Stage: StageLead}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Deal{
		{Title: "", Stage: StageLead},
		{Title: "a", Value: Money{Cents: -1}, Stage: StageLead},
		{Title: "a", Stage: "won"},
		{Title: "a", Stage: StageLead, Tier: "platinum"},
	}
	for i, d := range bads {
		if err := d.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestContactValidate(t *testing.T) {
	if err := (Contact{Name: "Jane Doe", Email: "jane@example.com"}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Contact{Name: "No Email"}).Validate(); err != nil {
		t.Fatalf("optional email: expected ok, got %v", err)
	}
	if err := (Contact{Name: ""}).Validate(); err == nil {
		t.Fatal("expected error for empty name")
	}
	if err := (Contact{Name: "a", Email: "not-an-email"}).Validate(); err == nil {
		t.Fatal("expected error for malformed email")
	}
}

func TestTaskValidate(t *testing.T) {
	good := Task{Title: "Follow up", Status: TaskPending, Priority: PriorityHigh}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bads := []Task{
		{Title: "", Status: TaskPending, Priority: PriorityLow},
		{Title: "a", Status: "done", Priority: PriorityLow},
		{Title: "a", Status: TaskPending, Priority: "asap"},
	}
	for i, task := range bads {
		if err := task.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestProfileValidate(t *testing.T) {
	good := Profile{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Role: RoleAdmin}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bads := []Profile{
		{FirstName: "", Email: "a@b.c", Role: RoleViewer},
		{FirstName: "a", Email: "", Role: RoleViewer},
		{FirstName: "a", Email: "a@b.c", Role: "owner"},
	}
	for i, p := range bads {
		if err := p.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestLabels(t *testing.T) {
	cases := []struct{ in, want string }{
		{string(StageInDevelopment), "In Development"},
		{string(StageDiscoveryCall), "Discovery Call"},
		{string(TierMidMarket), "Mid Market"},
		{string(TaskInProgress), "In Progress"},
		{string(StagePaid), "Paid"},
	}
	for _, tc := range cases {
		if got := labelize(tc.in); got != tc.want {
			t.Fatalf("labelize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
