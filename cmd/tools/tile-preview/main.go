package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"log"

	"github.com/annel0/topomap/internal/app"
	"github.com/annel0/topomap/internal/config"
	"github.com/annel0/topomap/internal/logging"
	"github.com/annel0/topomap/internal/render"
	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"
)

// viewer показывает тайлы карты в терминале; стрелки листают тайлы,
// d переключает дневной вариант, q/Esc - выход
type viewer struct {
	screen tcell.Screen
	app    *app.App
	m      *render.Map
	bg     colorful.Color

	x, z int
	day  bool
	res  *render.TileResult
	err  error
}

func main() {
	var (
		configPath = flag.String("config", "", "Путь к YAML конфигурации")
		mapName    = flag.String("map", "topo", "Имя карты")
		x          = flag.Int("x", 0, "Координата X тайла")
		z          = flag.Int("z", 0, "Координата Z тайла")
		bgHex      = flag.String("bg", "#000000", "Цвет фона терминала для полупрозрачных пикселей")
	)
	flag.Parse()

	bg, err := colorful.Hex(*bgHex)
	if err != nil {
		log.Fatalf("Неверный цвет фона %q: %v", *bgHex, err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}
	// Логи в консоль испортят экран tcell
	logging.SetDefaultLevel(logging.ERROR + 1)

	a, err := app.New(context.Background(), cfg, app.Options{})
	if err != nil {
		log.Fatalf("Ошибка инициализации: %v", err)
	}
	defer a.Close()

	m, err := a.Map(*mapName)
	if err != nil {
		log.Fatalf("%v", err)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		log.Fatalf("Ошибка терминала: %v", err)
	}
	if err := screen.Init(); err != nil {
		log.Fatalf("Ошибка терминала: %v", err)
	}
	defer screen.Fini()

	v := &viewer{screen: screen, app: a, m: m, bg: bg, x: *x, z: *z}
	v.load()
	v.loop()
}

func (v *viewer) load() {
	v.res, v.err = v.app.Renderer.RenderTile(context.Background(), v.m, render.TileCoord{X: v.x, Z: v.z})
}

func (v *viewer) loop() {
	for {
		v.draw()
		switch ev := v.screen.PollEvent().(type) {
		case *tcell.EventResize:
			v.screen.Sync()
		case *tcell.EventKey:
			switch ev.Key() {
			case tcell.KeyEscape, tcell.KeyCtrlC:
				return
			case tcell.KeyLeft:
				v.x--
				v.load()
			case tcell.KeyRight:
				v.x++
				v.load()
			case tcell.KeyUp:
				v.z--
				v.load()
			case tcell.KeyDown:
				v.z++
				v.load()
			case tcell.KeyRune:
				switch ev.Rune() {
				case 'q':
					return
				case 'd':
					v.day = !v.day
				}
			}
		}
	}
}

func (v *viewer) draw() {
	v.screen.Clear()
	w, h := v.screen.Size()
	status := fmt.Sprintf(" %s (%d,%d) ", v.m.Title, v.x, v.z)
	if v.day && v.m.NightAndDay() {
		status += "[день] "
	}

	if v.err != nil {
		status += v.err.Error()
	} else {
		img := v.res.Image
		if v.day && v.res.DayImage != nil {
			img = v.res.DayImage
		}
		drawHalfBlocks(v.screen, img, v.bg, w, h-1)
	}

	style := tcell.StyleDefault.Reverse(true)
	for i, r := range []rune(status) {
		if i >= w {
			break
		}
		v.screen.SetContent(i, h-1, r, nil, style)
	}
	v.screen.Show()
}

// drawHalfBlocks рисует изображение символами '▀': верхний пиксель - цвет текста,
// нижний - фон. Изображение вписывается в w x 2h пикселей ближайшим соседом.
func drawHalfBlocks(screen tcell.Screen, img *image.NRGBA, bg colorful.Color, w, h int) {
	size := img.Bounds().Dx()
	cols, rows := fitSize(size, w, h)
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			top := samplePixel(img, size, col, 2*row, cols, 2*rows)
			bottom := samplePixel(img, size, col, 2*row+1, cols, 2*rows)
			style := tcell.StyleDefault.
				Foreground(toTcell(blendOver(top, bg))).
				Background(toTcell(blendOver(bottom, bg)))
			screen.SetContent(col, row, '▀', nil, style)
		}
	}
}

// fitSize возвращает размер картинки в ячейках терминала с сохранением пропорций
func fitSize(size, w, h int) (cols, rows int) {
	side := size
	if side > w {
		side = w
	}
	if side > 2*h {
		side = 2 * h
	}
	return side, side / 2
}

// pixel - цвет пикселя тайла и его непрозрачность 0..1
type pixel struct {
	c     colorful.Color
	alpha float64
}

func samplePixel(img *image.NRGBA, size, px, py, w, h int) pixel {
	c := img.NRGBAAt(px*size/w, py*size/h)
	return pixel{
		c:     colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255},
		alpha: float64(c.A) / 255,
	}
}

// blendOver накладывает полупрозрачный пиксель на фон терминала
func blendOver(p pixel, bg colorful.Color) colorful.Color {
	return bg.BlendRgb(p.c, p.alpha).Clamped()
}

func toTcell(c colorful.Color) tcell.Color {
	r, g, b := c.RGB255()
	return tcell.NewRGBColor(int32(r), int32(g), int32(b))
}
