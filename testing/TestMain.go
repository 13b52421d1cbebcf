package testing

import (
	"os"
	stdtesting "testing"

	_ "github.com/Createch-Studio/KateringPro-sub000/internal/testing/guard"
)

func TestMain(m *stdtesting.M) {
	os.Exit(m.Run())
}
