// cmd/frameplayer_demo/main.go
// 帧动画播放演示程序
//
// 用法：
//   go run ./cmd/frameplayer_demo --config=cmd/frameplayer_demo/units
//   go run ./cmd/frameplayer_demo --config=cmd/frameplayer_demo/units --unit=knight --metrics=:9090

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image/color"
	"log"
	"net/http"
	"strings"

	"github.com/gonewx/frameplayer/pkg/animation"
	"github.com/gonewx/frameplayer/pkg/components"
	"github.com/gonewx/frameplayer/pkg/ecs"
	"github.com/gonewx/frameplayer/pkg/systems"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	configPath  = flag.String("config", "cmd/frameplayer_demo/units", "配置文件或目录路径")
	unitFilter  = flag.String("unit", "", "只加载指定单元（逗号分隔），为空加载全部")
	cacheSize   = flag.Int("cache", 0, "共享变换缓存容量，0 表示取各单元 max_cache_entries 之和")
	metricsAddr = flag.String("metrics", "", "Prometheus 指标监听地址（如 :9090），为空不启用")
	watch       = flag.Bool("watch", true, "监听帧图片变化并热重载")
	fontPath    = flag.String("font", "assets/fonts/SimHei.ttf", "中文字体文件，加载失败时使用默认字体")
	verbose     = flag.Bool("verbose", false, "详细日志")
)

const (
	screenWidth  = 960
	screenHeight = 640
	rotateStep   = 15.0
)

// Game 主游戏结构
type Game struct {
	scene        *Scene
	em           *ecs.EntityManager
	animSystem   *systems.AnimationSystem
	tweenSystem  *systems.ScaleTweenSystem
	renderSystem *systems.RenderSystem

	selected int // scene.entities 中的下标
	showHelp bool
	tick     float64 // 累计游戏时间（秒）

	textFont     *text.GoTextFace // 中文字体，为 nil 时使用调试字体
	textDrawOpts text.DrawOptions
}

// NewGame 创建游戏实例
func NewGame(scene *Scene, font *text.GoTextFace) *Game {
	return &Game{
		scene:        scene,
		textFont:     font,
		em:           scene.em,
		animSystem:   systems.NewAnimationSystem(scene.em),
		tweenSystem:  systems.NewScaleTweenSystem(scene.em),
		renderSystem: systems.NewRenderSystem(scene.em),
		showHelp:     true,
	}
}

// selectedEntity 返回当前选中的实体
func (g *Game) selectedEntity() (ecs.EntityID, *components.SpriteComponent, bool) {
	ids := g.scene.Entities()
	if len(ids) == 0 {
		return 0, nil, false
	}
	if g.selected >= len(ids) {
		g.selected = 0
	}
	id := ids[g.selected]
	sprite, ok := ecs.GetComponent[*components.SpriteComponent](g.em, id)
	return id, sprite, ok
}

// command 向选中实体下发动画命令
func (g *Game) command(cmd components.AnimationCommandComponent) {
	id, _, ok := g.selectedEntity()
	if !ok {
		return
	}
	cmd.Timestamp = g.tick
	ecs.AddComponent(g.em, id, &cmd)
}

// Update 更新游戏状态
func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	dt := 1.0 / float64(ebiten.TPS())
	g.tick += dt

	g.handleInput()

	g.tweenSystem.Update(dt)
	g.animSystem.Update(dt)
	if n := g.em.RemoveMarkedEntities(); n > 0 && *verbose {
		log.Printf("清理 %d 个实体", n)
	}
	return nil
}

func (g *Game) handleInput() {
	if inpututil.IsKeyJustPressed(ebiten.KeyH) {
		g.showHelp = !g.showHelp
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyD) {
		g.renderSystem.ShowDebug = !g.renderSystem.ShowDebug
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		g.selected++
		g.selectedEntity()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyC) {
		if err := g.scene.cache.Clear(); err != nil {
			log.Printf("清空缓存失败: %v", err)
		}
	}

	id, sprite, ok := g.selectedEntity()
	if !ok {
		return
	}
	unit := g.scene.UnitOf(id)

	// 数字键切换状态；按住 Shift 时保留进度
	shift := ebiten.IsKeyPressed(ebiten.KeyShift)
	for key := ebiten.Key1; key <= ebiten.Key9; key++ {
		if !inpututil.IsKeyJustPressed(key) || unit == nil {
			continue
		}
		states := unit.StateNames()
		if i := int(key - ebiten.Key1); i < len(states) {
			g.command(components.AnimationCommandComponent{
				State:            states[i],
				Reset:            !shift,
				PreserveProgress: shift,
			})
			if *verbose {
				log.Printf("实体 %d 切换到 %s (保留进度: %v)", id, states[i], shift)
			}
		}
	}

	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		action := components.ActionPause
		switch sprite.Player.Status() {
		case animation.Paused:
			action = components.ActionResume
		case animation.Stopped:
			action = components.ActionPlay
		}
		g.command(components.AnimationCommandComponent{Action: action})
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyS) {
		g.command(components.AnimationCommandComponent{Action: components.ActionStop})
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.command(components.AnimationCommandComponent{Action: components.ActionRewind})
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyM) {
		next := (sprite.Player.Mode() + 1) % (animation.PingPong + 1)
		g.command(components.AnimationCommandComponent{PlayMode: next.String()})
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyF) {
		sprite.Transform.FlipX = !sprite.Transform.FlipX
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyV) {
		sprite.Transform.FlipY = !sprite.Transform.FlipY
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyQ) {
		sprite.Transform.Angle -= rotateStep
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyE) {
		sprite.Transform.Angle += rotateStep
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEqual) {
		sprite.Transform.Size = g.scene.resize(id, sprite, 1.25)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyMinus) {
		sprite.Transform.Size = g.scene.resize(id, sprite, 0.8)
	}

	// 左键在光标处生成选中单元的一次性特效
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) && unit != nil {
		x, y := ebiten.CursorPosition()
		if _, err := g.scene.SpawnEffect(unit.ID, float64(x), float64(y)); err != nil {
			log.Printf("生成特效失败: %v", err)
		}
	}
}

// Draw 绘制游戏画面
func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{50, 50, 50, 255})
	g.renderSystem.Draw(screen, 0)
	g.drawInfoBar(screen)
	if g.showHelp {
		g.drawHelp(screen)
	}
}

// drawInfoBar 绘制顶部信息栏
func (g *Game) drawInfoBar(screen *ebiten.Image) {
	info := fmt.Sprintf("TPS: %.1f | 实体: %d", ebiten.ActualTPS(), g.em.EntityCount())
	if stats, err := g.scene.cache.Stats(); err == nil {
		info += fmt.Sprintf(" | 缓存: %d/%d 命中 %d 未命中 %d 淘汰 %d",
			stats.Size, stats.Capacity, stats.Hits, stats.Misses, stats.Evictions)
	}
	if id, sprite, ok := g.selectedEntity(); ok && !sprite.Player.Released() {
		snap := sprite.Player.Snapshot()
		info += fmt.Sprintf("\n选中 #%d %s[%d] %s %s 角度 %.0f", id, snap.State, snap.FrameIndex, snap.Status, snap.Mode, sprite.Transform.Angle)
	}
	g.drawText(screen, info, 10, 10)
}

// drawHelp 绘制帮助信息
func (g *Game) drawHelp(screen *ebiten.Image) {
	helpLines := []string{
		"操作说明:",
		"  Tab        - 选择下一个实体",
		"  1-9        - 切换状态（Shift 保留进度）",
		"  Space      - 暂停/继续",
		"  S / R      - 停止 / 倒回",
		"  M          - 切换播放模式",
		"  F / V      - 水平 / 垂直翻转",
		"  Q / E      - 旋转",
		"  + / -      - 缩放",
		"  左键点击   - 生成一次性特效",
		"  C          - 清空缓存",
		"  D          - 调试信息",
		"  H          - 显示/隐藏帮助",
		"  ESC        - 退出",
	}
	g.drawText(screen, strings.Join(helpLines, "\n"), screenWidth-260, 50)
}

// Layout 设置窗口布局
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenWidth, screenHeight
}

// serveMetrics 在后台暴露 Prometheus 指标
func serveMetrics(addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	go func() {
		log.Printf("✓ 指标服务: http://%s/metrics", addr)
		if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("警告: 指标服务退出: %v", err)
		}
	}()
}

func main() {
	flag.Parse()

	if *verbose {
		log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	}

	log.Println("=== 帧动画演示启动 ===")

	reg := prometheus.NewRegistry()
	metrics, err := animation.NewCacheMetrics(reg, "frameplayer")
	if err != nil {
		log.Fatalf("注册指标失败: %v", err)
	}
	if *metricsAddr != "" {
		serveMetrics(*metricsAddr, reg)
	}

	var units []string
	if *unitFilter != "" {
		units = strings.Split(*unitFilter, ",")
	}
	scene, err := LoadScene(SceneOptions{
		ConfigPath: *configPath,
		Units:      units,
		CacheSize:  *cacheSize,
		Metrics:    metrics,
		Width:      screenWidth,
		Height:     screenHeight,
	})
	if err != nil {
		log.Fatalf("初始化失败: %v", err)
	}
	defer scene.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if *watch {
		scene.Watch(ctx)
	}

	font, err := loadFont(*fontPath, 14)
	if err != nil {
		log.Printf("警告: 无法加载中文字体: %v (将使用默认字体)", err)
	} else {
		log.Printf("✓ 加载中文字体: %s (14px)", *fontPath)
	}

	ebiten.SetWindowSize(screenWidth, screenHeight)
	ebiten.SetWindowTitle("Frame Player Demo")
	ebiten.SetTPS(60)

	log.Println("=== 启动完成，开始运行 ===")

	if err := ebiten.RunGame(NewGame(scene, font)); err != nil && !errors.Is(err, ebiten.Termination) {
		log.Fatal(err)
	}
}
