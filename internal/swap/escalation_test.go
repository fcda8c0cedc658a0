package swap

import "testing"

func TestEscalation_Monotonic(t *testing.T) {
	for name, esc := range map[string]Escalation{
		"jupiter":    DefaultJupiterEscalation(),
		"raydium":    DefaultRaydiumEscalation(),
		"pumpportal": DefaultPumpPortalEscalation(),
	} {
		t.Run(name, func(t *testing.T) {
			prev := esc.Params(1)
			for attempt := 2; attempt <= 10; attempt++ {
				p := esc.Params(attempt)
				if p.PriorityFeeLamports < prev.PriorityFeeLamports {
					t.Errorf("attempt %d: fee decreased %d -> %d", attempt, prev.PriorityFeeLamports, p.PriorityFeeLamports)
				}
				if p.SlippageBps < prev.SlippageBps {
					t.Errorf("attempt %d: slippage decreased %d -> %d", attempt, prev.SlippageBps, p.SlippageBps)
				}
				if p.SlippageBps > esc.MaxSlippageBps {
					t.Errorf("attempt %d: slippage %d above cap %d", attempt, p.SlippageBps, esc.MaxSlippageBps)
				}
				prev = p
			}
		})
	}
}

func TestEscalation_PumpPortalSchedule(t *testing.T) {
	esc := DefaultPumpPortalEscalation()

	want := []Params{
		{PriorityFeeLamports: 600_000, SlippageBps: 2500},
		{PriorityFeeLamports: 2_600_000, SlippageBps: 9900},
		{PriorityFeeLamports: 4_600_000, SlippageBps: 9900},
	}
	for i, w := range want {
		if got := esc.Params(i + 1); got != w {
			t.Errorf("attempt %d: got %+v, want %+v", i+1, got, w)
		}
	}
}

func TestEscalation_AttemptBelowOne(t *testing.T) {
	esc := DefaultJupiterEscalation()
	if esc.Params(0) != esc.Params(1) {
		t.Error("attempt 0 should behave as the first attempt")
	}
	if (Escalation{}).attempts() != 1 {
		t.Error("zero MaxAttempts should still allow one attempt")
	}
}
