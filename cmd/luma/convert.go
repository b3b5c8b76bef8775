package main

import (
	"luma/internal/actuation"
	"luma/internal/arbiter"
	"luma/internal/button"
	"luma/internal/config"
	"luma/internal/fallback"
	"luma/internal/ledstrip"
	"luma/internal/link"
	"luma/internal/mount"
)

func arbiterConfig(c config.Config) arbiter.Config {
	d := c.Detect
	return arbiter.Config{
		SampleRateHz: c.SampleRateHz,
		Window:       d.Window,
		PostCapture:  d.PostCapture,
		TriggerG:     d.TriggerG,
		TriggerJerk:  d.TriggerJerk,
		Fallback: fallback.Thresholds{
			CrashG:    d.Fallback.CrashG,
			CrashJerk: d.Fallback.CrashJerk,
			BrakeJerk: d.Fallback.BrakeJerk,
			BrakeMaxG: d.Fallback.BrakeMaxG,
		},
		LocalBrakeHold: d.LocalBrakeHold,
		ModelBrakeHold: d.ModelBrakeHold,
		Cooldowns: arbiter.Cooldowns{
			LocalBrake:   d.Cooldowns.LocalBrake,
			LocalCrash:   d.Cooldowns.LocalCrash,
			ModelAttempt: d.Cooldowns.ModelAttempt,
			ModelBrake:   d.Cooldowns.ModelBrake,
			ModelCrash:   d.Cooldowns.ModelCrash,
		},
		CrashConfirm: d.CrashConfirm,
	}
}

func actuationConfig(c config.Config) actuation.Config {
	return actuation.Config{LEDCount: c.LEDs.Count, ConnectIndicator: c.LEDs.ConnectIndicator}
}

func stripConfig(c config.Config) ledstrip.Config {
	return ledstrip.Config{
		Driver:     c.LEDs.Driver,
		Count:      c.LEDs.Count,
		SPIPort:    c.LEDs.SPIPort,
		FreqHz:     c.LEDs.FreqHz,
		Brightness: c.LEDs.Brightness,
	}
}

func linkConfig(c config.Config) link.Config {
	k := c.Link
	return link.Config{
		Transport: k.Transport,
		DeviceID:  k.DeviceID,
		QueueSize: k.QueueSize,
		MQTT: link.MQTTConfig{
			Broker:      k.MQTT.Broker,
			TopicPrefix: k.MQTT.TopicPrefix,
			Username:    k.MQTT.Username,
			Password:    k.MQTT.Password,
			QoS:         k.MQTT.QoS,
		},
		WS:     link.WSConfig{Listen: k.WS.Listen, Path: k.WS.Path},
		Serial: link.SerialConfig{Port: k.Serial.Port, Baud: k.Serial.Baud},
		UDP:    link.UDPConfig{Dest: k.UDP.Dest, Listen: k.UDP.Listen},
	}
}

func mountConfig(c config.Config) mount.Config {
	m := c.Sensor.Mount
	out := mount.Config{ForwardAxis: m.ForwardAxis, LevelSamples: m.LevelSamples}
	if len(m.Gravity) == 3 {
		out.Gravity = [3]float64{m.Gravity[0], m.Gravity[1], m.Gravity[2]}
		out.GravitySet = true
	}
	return out
}

func buttonConfig(c config.Config) button.Config {
	b := c.Button
	return button.Config{Enable: b.Enable, Chip: b.Chip, Line: b.Line, Debounce: b.Debounce}
}
