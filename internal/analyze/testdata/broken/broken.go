package broken

type Shape interface {
	Area() float64
}

type Square struct {
	Side float64
}

func (s *Square) Area() float64 { return s.Side * s.Side }

type Circle struct {
	Radius Missing
}

func Perimeter(s *Square) int { return "four sides" }
