// Command inject sends one injection or control message to a running
// player, over MQTT by default or through the operator API with -api.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/AaronLay10/ScenarioEngine/internal/config"
	"github.com/AaronLay10/ScenarioEngine/internal/mqtt"
	"github.com/AaronLay10/ScenarioEngine/internal/player"
)

func main() {
	var env config.Env
	if err := config.ParseEnv(&env); err != nil {
		fail(err)
	}

	var m player.Message
	configPath := flag.String("config", env.ConfigPath, "player.yaml used to derive the topic prefix")
	apiURL := flag.String("api", "", "operator API base URL, e.g. http://localhost:8080 (default: publish over MQTT)")
	user := flag.String("user", os.Getenv("SCENARIO_OPERATOR_USER"), "operator API user")
	flag.StringVar(&m.Type, "type", "", "speed, lane_change, lane_offset, play, pause, step, step_dt, quit or restart")
	flag.IntVar(&m.EntityID, "id", 0, "target entity id")
	flag.Float64Var(&m.Speed, "speed", 0, "target speed (m/s)")
	flag.StringVar(&m.Mode, "mode", "", "lane_change mode: absolute or relative")
	flag.IntVar(&m.Target, "target", 0, "lane_change target lane or delta")
	flag.Float64Var(&m.Offset, "offset", 0, "lane_offset target (m)")
	flag.Float64Var(&m.MaxLateralAcc, "max-lat-acc", 0, "lane_offset max lateral acceleration (m/s2)")
	flag.StringVar(&m.Shape, "shape", "", "linear, cubic, sinusoidal or step")
	flag.StringVar(&m.Dimension, "dimension", "", "time, distance or rate")
	flag.Float64Var(&m.Value, "value", 0, "transition value in the chosen dimension")
	flag.Float64Var(&m.DT, "dt", 0, "step_dt step size (s)")
	flag.Parse()

	if err := m.Validate(); err != nil {
		fail(err)
	}

	if *apiURL != "" {
		pass := os.Getenv("SCENARIO_OPERATOR_PASS")
		if err := sendAPI(*apiURL, *user, pass, m); err != nil {
			fail(err)
		}
		return
	}

	cfg, err := config.LoadPlayerConfig(*configPath)
	if err != nil {
		fail(fmt.Errorf("load %s: %w", *configPath, err))
	}
	pass, err := config.ResolveSecret("MQTT_PASSWORD")
	if err != nil {
		fail(err)
	}
	if err := sendMQTT(env.MQTTURL, env.MQTTUser, pass, cfg.TopicPrefix()+"/inject", m); err != nil {
		fail(err)
	}
}

func sendMQTT(broker, user, pass, topic string, m player.Message) error {
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	client := mqtt.NewClient(fmt.Sprintf("scenario-inject-%d", os.Getpid()), mqtt.Options{
		BrokerURL: broker,
		Username:  user,
		Password:  pass,
	})
	if err := client.Connect(); err != nil {
		return fmt.Errorf("connect %s: %w", broker, err)
	}
	defer client.Disconnect()
	return client.Publish(topic, b)
}

// sendAPI posts control commands to /operator/control and actions to
// /operator/inject.
func sendAPI(base, user, pass string, m player.Message) error {
	path := "/operator/inject"
	var body interface{} = m
	switch m.Type {
	case player.MsgSpeed, player.MsgLaneChange, player.MsgLaneOffset:
	default:
		path = "/operator/control"
		body = map[string]interface{}{"command": m.Type, "dt": m.DT}
	}

	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, base+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.SetBasicAuth(user, pass)
	}

	resp, err := (&http.Client{Timeout: 10 * time.Second}).Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var out struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	if resp.StatusCode != http.StatusOK {
		if out.Error == "" {
			out.Error = resp.Status
		}
		return fmt.Errorf("%s: %s", path, out.Error)
	}
	return nil
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
