package game

import (
	"reflect"
	"testing"
)

func contributor(seat, total int) *Player {
	return &Player{Seat: seat, TotalBet: total}
}

func allInContributor(seat, total int) *Player {
	return &Player{Seat: seat, TotalBet: total, AllIn: true}
}

func foldedContributor(seat, total int) *Player {
	return &Player{Seat: seat, TotalBet: total, Folded: true}
}

func TestBuildPots(t *testing.T) {
	tests := []struct {
		name    string
		players []*Player
		want    []Pot
	}{
		{
			name: "no all-ins single pot",
			players: []*Player{
				contributor(0, 30),
				foldedContributor(1, 10),
				contributor(2, 30),
			},
			want: []Pot{{Amount: 70, Eligible: []int{0, 2}}},
		},
		{
			name: "one short all-in",
			players: []*Player{
				allInContributor(0, 50),
				contributor(1, 100),
				contributor(2, 100),
			},
			want: []Pot{
				{Amount: 150, Eligible: []int{0, 1, 2}},
				{Amount: 100, Eligible: []int{1, 2}},
			},
		},
		{
			name: "two all-in levels",
			players: []*Player{
				allInContributor(0, 100),
				allInContributor(1, 50),
				contributor(2, 100),
			},
			want: []Pot{
				{Amount: 150, Eligible: []int{0, 1, 2}},
				{Amount: 100, Eligible: []int{0, 2}},
			},
		},
		{
			name: "dead money lands in every layer it reached",
			players: []*Player{
				foldedContributor(0, 150),
				contributor(1, 400),
				allInContributor(2, 120),
			},
			want: []Pot{
				{Amount: 360, Eligible: []int{1, 2}},
				{Amount: 310, Eligible: []int{1}},
			},
		},
		{
			name: "overbet above all-in returns to sole contributor",
			players: []*Player{
				contributor(0, 100),
				allInContributor(1, 60),
			},
			want: []Pot{
				{Amount: 120, Eligible: []int{0, 1}},
				{Amount: 40, Eligible: []int{0}},
			},
		},
		{
			name: "folded chips count but folder is never eligible",
			players: []*Player{
				foldedContributor(0, 60),
				allInContributor(1, 60),
				contributor(2, 60),
			},
			want: []Pot{{Amount: 180, Eligible: []int{1, 2}}},
		},
		{
			name: "matching all-ins share one pot",
			players: []*Player{
				allInContributor(0, 30),
				allInContributor(1, 30),
			},
			want: []Pot{{Amount: 60, Eligible: []int{0, 1}}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildPots(tt.players)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("BuildPots() = %+v, want %+v", got, tt.want)
			}
			sum := 0
			for _, pot := range got {
				sum += pot.Amount
			}
			if sum != PotTotal(tt.players) {
				t.Errorf("pots sum to %d, contributions total %d", sum, PotTotal(tt.players))
			}
		})
	}
}
